// deepvision/routes/chat.go
package routes

import (
	"encoding/json"
	"errors"
	"net/http"

	"deepvision/deepvision/config"
	"deepvision/deepvision/controllers"
	"deepvision/deepvision/middlewares"
	"deepvision/deepvision/services/llm"
	"deepvision/deepvision/sources/psql/dao"
	"deepvision/deepvision/types"
	"deepvision/deepvision/utils/logging"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

const notFoundMessage = "Chat not found or you don't have permission"

func ChatRoutes(ctrl *controllers.ChatController, cfg config.Config) chi.Router {
	r := chi.NewRouter()
	r.Group(func(gr chi.Router) {
		gr.Use(middlewares.AuthMiddleware(cfg))

		// POST /chat/create : new chat with default name + seed message
		gr.Post("/create", func(w http.ResponseWriter, r *http.Request) {
			chat, err := ctrl.CreateChat(r.Context(), middlewares.UserID(r))
			if err != nil {
				logging.ErrorLogger.Error("create chat error", zap.Error(err))
				writeJSON(w, http.StatusOK, types.ChatResponse{Success: false, Message: err.Error()})
				return
			}
			writeJSON(w, http.StatusOK, types.ChatResponse{Success: true, Message: "Chat created", Chat: chat})
		})

		// GET /chat/get : all of the caller's chats
		gr.Get("/get", func(w http.ResponseWriter, r *http.Request) {
			chats, err := ctrl.ListChats(r.Context(), middlewares.UserID(r))
			if err != nil {
				logging.ErrorLogger.Error("list chats error", zap.Error(err))
				writeJSON(w, http.StatusOK, types.ChatListResponse{Success: false, Message: err.Error()})
				return
			}
			writeJSON(w, http.StatusOK, types.ChatListResponse{Success: true, Data: chats})
		})

		// POST /chat/rename
		gr.Post("/rename", func(w http.ResponseWriter, r *http.Request) {
			var req types.RenameChatRequest
			if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
				writeJSON(w, http.StatusOK, types.ChatResponse{Success: false, Message: "Invalid request body"})
				return
			}
			chat, err := ctrl.RenameChat(r.Context(), middlewares.UserID(r), req.ChatID, req.Name)
			if err != nil {
				writeJSON(w, http.StatusOK, types.ChatResponse{Success: false, Message: chatErrorMessage(err)})
				return
			}
			writeJSON(w, http.StatusOK, types.ChatResponse{Success: true, Message: "Chat renamed successfully", Chat: chat})
		})

		// POST /chat/delete : hard delete, returns the removed snapshot
		gr.Post("/delete", func(w http.ResponseWriter, r *http.Request) {
			var req types.DeleteChatRequest
			if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
				writeJSON(w, http.StatusOK, types.ChatResponse{Success: false, Message: "Invalid request body"})
				return
			}
			chat, err := ctrl.DeleteChat(r.Context(), middlewares.UserID(r), req.ChatID)
			if err != nil {
				writeJSON(w, http.StatusOK, types.ChatResponse{Success: false, Message: chatErrorMessage(err)})
				return
			}
			writeJSON(w, http.StatusOK, types.ChatResponse{Success: true, Message: "Chat deleted successfully", Chat: chat})
		})

		// POST /chat/ai : append prompt, run completion, return assistant message
		gr.Post("/ai", func(w http.ResponseWriter, r *http.Request) {
			var req types.SendMessageRequest
			if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
				writeJSON(w, http.StatusOK, types.AssistantResponse{Success: false, Message: "Invalid request body"})
				return
			}
			message, err := ctrl.SendMessage(r.Context(), middlewares.UserID(r), req.ChatID, req.Prompt)
			if err != nil {
				logging.ErrorLogger.Error("send message error", zap.String("chat_id", req.ChatID), zap.Error(err))
				status := http.StatusOK
				if llm.IsQuotaExceeded(err) {
					// 402 passes through so clients can special-case quota.
					status = http.StatusPaymentRequired
				}
				writeJSON(w, status, types.AssistantResponse{Success: false, Message: chatErrorMessage(err)})
				return
			}
			writeJSON(w, http.StatusOK, types.AssistantResponse{Success: true, Data: message})
		})
	})
	return r
}

func chatErrorMessage(err error) string {
	if errors.Is(err, dao.ErrChatNotFound) {
		return notFoundMessage
	}
	return err.Error()
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logging.ErrorLogger.Error("response encode error", zap.Error(err))
	}
}
