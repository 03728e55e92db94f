package handlers

import (
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/Windi-Fikriyansyah/assignment_hub_be/internal/apperr"
	"github.com/Windi-Fikriyansyah/assignment_hub_be/internal/models"
)

type CategoryHandler struct {
	DB *gorm.DB
}

func NewCategoryHandler(db *gorm.DB) *CategoryHandler {
	return &CategoryHandler{DB: db}
}

type categoryView struct {
	Name            string `json:"name"`
	OpenAssignments int64  `json:"open_assignments"`
}

// GetCategories lists the fixed category set with the number of
// assignments currently open for bidding in each.
func (h *CategoryHandler) GetCategories(c *fiber.Ctx) error {
	var rows []struct {
		Category string
		Total    int64
	}
	err := h.DB.WithContext(c.UserContext()).
		Model(&models.Assignment{}).
		Select("category, COUNT(*) AS total").
		Where("status = ?", models.AssignmentPosted).
		Group("category").
		Scan(&rows).Error
	if err != nil {
		return apperr.Internal("load categories", err)
	}

	counts := make(map[string]int64, len(rows))
	for _, r := range rows {
		counts[r.Category] = r.Total
	}
	out := make([]categoryView, 0, len(models.Categories))
	for _, name := range models.Categories {
		out = append(out, categoryView{Name: name, OpenAssignments: counts[name]})
	}
	return ok(c, "", out)
}
