package handlers

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"example.com/subtracker/backend/internal/models"
	"example.com/subtracker/backend/internal/notifications"
)

const defaultAvatarColor = "#6366F1"

type MemberHandler struct {
	Members  MemberStore
	Notifier Publisher
}

// NewMemberHandler создает обработчик участников домохозяйства.
func NewMemberHandler(members MemberStore, notifier Publisher) *MemberHandler {
	return &MemberHandler{Members: members, Notifier: notifier}
}

type MemberRequest struct {
	Name        string               `json:"name" validate:"required,max=100"`
	Role        models.HouseholdRole `json:"role" validate:"omitempty,oneof=admin member"`
	AvatarColor *string              `json:"avatar_color"`
	AvatarURL   string               `json:"avatar_url" validate:"omitempty,url"`
}

// List возвращает участников по дате добавления.
func (h *MemberHandler) List(c echo.Context) error {
	members, err := h.Members.List(c.Request().Context())
	if err != nil {
		return serverError(c)
	}
	return c.JSON(http.StatusOK, members)
}

// Create добавляет участника.
func (h *MemberHandler) Create(c echo.Context) error {
	var req MemberRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return badRequest(c, "validation failed")
	}

	name := strings.TrimSpace(req.Name)
	if name == "" {
		return badRequest(c, "name is required")
	}

	member := models.HouseholdMember{
		Name:        name,
		Role:        req.Role,
		AvatarColor: defaultAvatarColor,
		AvatarURL:   req.AvatarURL,
	}
	if member.Role == "" {
		member.Role = models.RoleMember
	}
	if req.AvatarColor != nil {
		color, err := validateHexColor(*req.AvatarColor)
		if err != nil {
			return badRequest(c, err.Error())
		}
		member.AvatarColor = color
	}

	created, err := h.Members.Create(c.Request().Context(), member)
	if err != nil {
		return storeError(c, err, "member not found")
	}

	publish(h.Notifier, notifications.Members)
	return c.JSON(http.StatusCreated, created)
}

// Update заменяет изменяемые поля участника.
func (h *MemberHandler) Update(c echo.Context) error {
	id, ok := parseID(c)
	if !ok {
		return badRequest(c, "invalid member id")
	}

	var req MemberRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return badRequest(c, "validation failed")
	}

	name := strings.TrimSpace(req.Name)
	if name == "" {
		return badRequest(c, "name is required")
	}

	var color string
	if req.AvatarColor != nil {
		var err error
		color, err = validateHexColor(*req.AvatarColor)
		if err != nil {
			return badRequest(c, err.Error())
		}
	}

	updated, err := h.Members.Update(c.Request().Context(), id, func(member *models.HouseholdMember) error {
		member.Name = name
		member.AvatarURL = req.AvatarURL
		if req.Role != "" {
			member.Role = req.Role
		}
		if color != "" {
			member.AvatarColor = color
		}
		return nil
	})
	if err != nil {
		return storeError(c, err, "member not found")
	}

	publish(h.Notifier, notifications.Members)
	return c.JSON(http.StatusOK, updated)
}

// Delete удаляет участника. Ссылки в подписках остаются и показываются как неизвестный участник.
func (h *MemberHandler) Delete(c echo.Context) error {
	id, ok := parseID(c)
	if !ok {
		return badRequest(c, "invalid member id")
	}

	if err := h.Members.Delete(c.Request().Context(), id); err != nil {
		return storeError(c, err, "member not found")
	}

	publish(h.Notifier, notifications.Members)
	return c.NoContent(http.StatusNoContent)
}

type CategoryHandler struct {
	Categories CategoryStore
	Notifier   Publisher
}

// NewCategoryHandler создает обработчик категорий.
func NewCategoryHandler(categories CategoryStore, notifier Publisher) *CategoryHandler {
	return &CategoryHandler{Categories: categories, Notifier: notifier}
}

type CategoryRequest struct {
	Name      string  `json:"name" validate:"required,max=100"`
	Icon      string  `json:"icon" validate:"max=50"`
	Color     *string `json:"color"`
	SortOrder *int    `json:"sort_order" validate:"omitempty,gte=0"`
}

// List возвращает категории в порядке сортировки.
func (h *CategoryHandler) List(c echo.Context) error {
	categories, err := h.Categories.List(c.Request().Context())
	if err != nil {
		return serverError(c)
	}
	return c.JSON(http.StatusOK, categories)
}

// Create добавляет пользовательскую категорию в конец списка.
func (h *CategoryHandler) Create(c echo.Context) error {
	var req CategoryRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return badRequest(c, "validation failed")
	}

	name := strings.TrimSpace(req.Name)
	if name == "" {
		return badRequest(c, "name is required")
	}

	ctx := c.Request().Context()
	category := models.Category{Name: name, Icon: req.Icon}
	if req.Color != nil {
		color, err := validateHexColor(*req.Color)
		if err != nil {
			return badRequest(c, err.Error())
		}
		category.Color = color
	}
	if req.SortOrder != nil {
		category.SortOrder = *req.SortOrder
	} else {
		existing, err := h.Categories.List(ctx)
		if err != nil {
			return serverError(c)
		}
		category.SortOrder = nextSortOrder(existing)
	}

	created, err := h.Categories.Create(ctx, category)
	if err != nil {
		return storeError(c, err, "category not found")
	}

	publish(h.Notifier, notifications.Categories)
	return c.JSON(http.StatusCreated, created)
}

// Update изменяет категорию. Признак категории по умолчанию не меняется.
func (h *CategoryHandler) Update(c echo.Context) error {
	id, ok := parseID(c)
	if !ok {
		return badRequest(c, "invalid category id")
	}

	var req CategoryRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return badRequest(c, "validation failed")
	}

	name := strings.TrimSpace(req.Name)
	if name == "" {
		return badRequest(c, "name is required")
	}

	var color string
	if req.Color != nil {
		var err error
		color, err = validateHexColor(*req.Color)
		if err != nil {
			return badRequest(c, err.Error())
		}
	}

	updated, err := h.Categories.Update(c.Request().Context(), id, func(category *models.Category) error {
		category.Name = name
		category.Icon = req.Icon
		if color != "" {
			category.Color = color
		}
		if req.SortOrder != nil {
			category.SortOrder = *req.SortOrder
		}
		return nil
	})
	if err != nil {
		return storeError(c, err, "category not found")
	}

	publish(h.Notifier, notifications.Categories)
	return c.JSON(http.StatusOK, updated)
}

// Delete удаляет категорию. Подписки с этой категорией попадают в группу "Unknown".
func (h *CategoryHandler) Delete(c echo.Context) error {
	id, ok := parseID(c)
	if !ok {
		return badRequest(c, "invalid category id")
	}

	if err := h.Categories.Delete(c.Request().Context(), id); err != nil {
		return storeError(c, err, "category not found")
	}

	publish(h.Notifier, notifications.Categories)
	return c.NoContent(http.StatusNoContent)
}

func nextSortOrder(categories []models.Category) int {
	next := 0
	for _, category := range categories {
		if category.SortOrder >= next {
			next = category.SortOrder + 1
		}
	}
	return next
}
