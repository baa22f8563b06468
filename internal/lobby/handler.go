package lobby

import (
	"net/http"

	"HoldemTable/internal/utils"
	"HoldemTable/internal/websocket"

	"github.com/gin-gonic/gin"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

// POST /table/join  body: {tableId, playerId, connectionId?}
func (h *Handler) Join(c *gin.Context) {
	var req JoinRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, JoinResponse{
			StatusCode: http.StatusBadRequest,
			Message:    ErrBadRequest.Error(),
			Action:     websocket.ActionJoinGame,
		})
		return
	}

	_, msg, err := h.svc.Join(c.Request.Context(), req)
	if err != nil {
		code := StatusCode(err)
		if code >= http.StatusInternalServerError {
			utils.Log.Error("join failed", "table", req.TableID, "player", req.PlayerID, "err", err)
		}
		c.JSON(code, JoinResponse{StatusCode: code, Message: UserMessage(err), Action: websocket.ActionJoinGame})
		return
	}
	c.JSON(http.StatusOK, JoinResponse{StatusCode: http.StatusOK, Message: msg, Action: websocket.ActionJoinGame})
}

// POST /table  body: TableConfig
func (h *Handler) Create(c *gin.Context) {
	var req TableConfig
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	sess, err := h.svc.CreateTable(c.Request.Context(), req)
	if err != nil {
		code := StatusCode(err)
		if code >= http.StatusInternalServerError {
			utils.Log.Error("create table failed", "err", err)
		}
		c.JSON(code, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, sess)
}

// GET /table/:id
func (h *Handler) Get(c *gin.Context) {
	sess, err := h.svc.Table(c.Request.Context(), c.Param("id"))
	if err != nil {
		c.JSON(StatusCode(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, sess)
}
