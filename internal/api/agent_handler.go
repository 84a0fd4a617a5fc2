package api

import (
	"net/http"

	"github.com/shaiso/Leadflow/internal/domain"
)

// ListAgents возвращает закрытый набор агентов.
// GET /api/v1/agents
func (h *Handler) ListAgents(w http.ResponseWriter, r *http.Request) {
	kinds := domain.AllAgentKinds()

	result := make([]AgentResponse, len(kinds))
	for i, k := range kinds {
		result[i] = AgentResponse{Name: k.String(), Slug: k.Slug()}
	}

	List(w, result, len(result))
}
