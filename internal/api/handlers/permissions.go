// permissions.go — обработчики дерева меню, деревьев авторизации,
// назначения прав, членства в ролях и проверки доступа.
package handlers

import (
	"net/http"

	apierrors "github.com/bigkaa/goartstore/backoffice-module/internal/api/errors"
	"github.com/bigkaa/goartstore/backoffice-module/internal/api/middleware"
	"github.com/bigkaa/goartstore/backoffice-module/internal/permission"
)

// MenuTree — GET /api/v1/menus/tree. Полная иерархия, включая удалённые.
func (h *APIHandler) MenuTree(w http.ResponseWriter, r *http.Request) {
	tree, err := h.menus.Tree(r.Context())
	if err != nil {
		apierrors.FromError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, tree)
}

// AuthorizationTree — GET /api/v1/{users|roles}/{id}/authorization-tree?parentId=.
func (h *APIHandler) AuthorizationTree(kind permission.SubjectKind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := pathID(w, r, "id")
		if !ok {
			return
		}
		parentID, ok := queryString(w, r, "parentId")
		if !ok {
			return
		}
		tree, err := h.permissions.AuthorizationTree(r.Context(), kind, id, parentID)
		if err != nil {
			apierrors.FromError(w, h.logger, err)
			return
		}
		writeJSON(w, http.StatusOK, tree)
	}
}

// Assign — PUT /api/v1/{users|roles}/{id}/{menus|buttons}/{resourceId}.
func (h *APIHandler) Assign(kind permission.SubjectKind, resource permission.ResourceKind) http.HandlerFunc {
	return h.assignment(kind, resource, true)
}

// Unassign — DELETE /api/v1/{users|roles}/{id}/{menus|buttons}/{resourceId}.
func (h *APIHandler) Unassign(kind permission.SubjectKind, resource permission.ResourceKind) http.HandlerFunc {
	return h.assignment(kind, resource, false)
}

func (h *APIHandler) assignment(kind permission.SubjectKind, resource permission.ResourceKind, assign bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := pathID(w, r, "id")
		if !ok {
			return
		}
		resourceID, ok := pathID(w, r, "resourceId")
		if !ok {
			return
		}
		res := permission.Resource{Kind: resource, ID: resourceID}

		var err error
		if assign {
			err = h.permissions.Assign(r.Context(), middleware.ActorFromContext(r.Context()), kind, id, res)
		} else {
			err = h.permissions.Unassign(r.Context(), kind, id, res)
		}
		if err != nil {
			apierrors.FromError(w, h.logger, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

// UserRoles — GET /api/v1/users/{id}/roles.
func (h *APIHandler) UserRoles(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	roles, err := h.permissions.UserRoles(r.Context(), id)
	if err != nil {
		apierrors.FromError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, roles)
}

// AddUserRole — PUT /api/v1/users/{id}/roles/{roleId}.
func (h *APIHandler) AddUserRole(w http.ResponseWriter, r *http.Request) {
	h.membership(w, r, true)
}

// RemoveUserRole — DELETE /api/v1/users/{id}/roles/{roleId}.
func (h *APIHandler) RemoveUserRole(w http.ResponseWriter, r *http.Request) {
	h.membership(w, r, false)
}

func (h *APIHandler) membership(w http.ResponseWriter, r *http.Request, add bool) {
	userID, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	roleID, ok := pathID(w, r, "roleId")
	if !ok {
		return
	}

	var err error
	if add {
		err = h.permissions.AddUserRole(r.Context(), middleware.ActorFromContext(r.Context()), userID, roleID)
	} else {
		err = h.permissions.RemoveUserRole(r.Context(), userID, roleID)
	}
	if err != nil {
		apierrors.FromError(w, h.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// permissionCheckResponse — ответ проверки доступа.
type permissionCheckResponse struct {
	Allowed bool `json:"allowed"`
}

// CheckPermission — GET /api/v1/permissions/check?area=&page= или ?area=&url=.
// Проверяет доступ вызывающего субъекта.
func (h *APIHandler) CheckPermission(w http.ResponseWriter, r *http.Request) {
	params := make(map[string]string, 3)
	for _, name := range []string{"area", "page", "url"} {
		v, ok := queryString(w, r, name)
		if !ok {
			return
		}
		params[name] = v
	}

	actor := middleware.ActorFromContext(r.Context())
	allowed, err := h.permissions.Check(r.Context(), actor, params["area"], params["page"], params["url"])
	if err != nil {
		apierrors.FromError(w, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, permissionCheckResponse{Allowed: allowed})
}

// currentActorResponse — субъект текущего запроса.
type currentActorResponse struct {
	ID       string   `json:"id,omitempty"`
	UserName string   `json:"userName,omitempty"`
	RealName string   `json:"realName,omitempty"`
	ClientIP string   `json:"clientIp,omitempty"`
	Roles    []string `json:"roles"`
	IsAdmin  bool     `json:"isAdmin"`
}

// Me — GET /api/v1/me. Субъект текущего запроса.
func (h *APIHandler) Me(w http.ResponseWriter, r *http.Request) {
	actor := middleware.ActorFromContext(r.Context())
	roles := actor.Roles
	if roles == nil {
		roles = []string{}
	}
	writeJSON(w, http.StatusOK, currentActorResponse{
		ID:       actor.ID,
		UserName: actor.UserName,
		RealName: actor.RealName,
		ClientIP: actor.ClientIP,
		Roles:    roles,
		IsAdmin:  h.permissions.Checker().IsAdmin(actor),
	})
}
