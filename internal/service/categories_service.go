package service

import (
	"context"
	"strings"

	"github.com/boddenberg/family-finance-go/internal/domain"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

// ============================================================
// Categories
// ============================================================

const categoryCacheName = "categories"

func categoryCacheKey(familyID string) string {
	return categoryCacheName + ":" + familyID
}

var errAdminOnly = &domain.ErrForbidden{Action: "Apenas administradores"}

// ListCategories returns the family's categories ordered by name.
func (s *FinanceService) ListCategories(ctx context.Context, session domain.Session) ([]domain.Category, error) {
	ctx, span := financeTracer.Start(ctx, "FinanceService.ListCategories")
	defer span.End()
	span.SetAttributes(attribute.String("family.id", session.FamilyID))

	return s.familyCategories(ctx, session.FamilyID)
}

func (s *FinanceService) familyCategories(ctx context.Context, familyID string) ([]domain.Category, error) {
	key := categoryCacheKey(familyID)
	if s.categories != nil {
		if cached, ok := s.categories.Get(key); ok {
			s.metrics.IncrCacheHit(categoryCacheName)
			return cached, nil
		}
		s.metrics.IncrCacheMiss(categoryCacheName)
	}

	cats, err := s.store.ListCategories(ctx, familyID)
	if err != nil {
		return nil, err
	}
	if s.categories != nil {
		s.categories.Set(key, cats)
	}
	return cats, nil
}

func (s *FinanceService) invalidateCategories(familyID string) {
	if s.categories != nil {
		s.categories.Delete(categoryCacheKey(familyID))
	}
}

func (s *FinanceService) CreateCategory(ctx context.Context, session domain.Session, req *domain.CategoryRequest) (*domain.Category, error) {
	ctx, span := financeTracer.Start(ctx, "FinanceService.CreateCategory")
	defer span.End()

	if !session.IsAdmin() {
		return nil, errAdminOnly
	}
	c, err := newCategory(session.FamilyID, req)
	if err != nil {
		return nil, err
	}
	if err := s.store.CreateCategory(ctx, c); err != nil {
		return nil, err
	}
	s.invalidateCategories(session.FamilyID)

	s.logger.Info("category created",
		zap.String("family_id", session.FamilyID),
		zap.String("category_id", c.ID),
		zap.String("name", c.Name),
	)
	return c, nil
}

func newCategory(familyID string, req *domain.CategoryRequest) (*domain.Category, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, &domain.ErrValidation{Field: "name", Message: "Nome obrigatório"}
	}
	c := &domain.Category{
		FamilyID: familyID,
		Name:     name,
		Type:     req.Type,
		Icon:     req.Icon,
		Color:    req.Color,
		Rules:    req.Rules,
	}
	if c.Type == "" {
		c.Type = domain.TransactionExpense
	}
	if !c.Type.Valid() {
		return nil, &domain.ErrValidation{Field: "type", Message: "Tipo deve ser INCOME ou EXPENSE"}
	}
	if c.Icon == "" {
		c.Icon = domain.DefaultCategoryIcon
	}
	if c.Color == "" {
		c.Color = domain.DefaultCategoryColor
	}
	if c.Rules == nil {
		c.Rules = []string{}
	}
	return c, nil
}

// UpdateCategory applies the non-empty fields of req; rules are replaced
// whenever present.
func (s *FinanceService) UpdateCategory(ctx context.Context, session domain.Session, req *domain.CategoryRequest) (*domain.Category, error) {
	ctx, span := financeTracer.Start(ctx, "FinanceService.UpdateCategory")
	defer span.End()
	span.SetAttributes(attribute.String("category.id", req.ID))

	if req.ID == "" {
		return nil, &domain.ErrValidation{Field: "id", Message: "ID obrigatório"}
	}
	c, err := s.store.GetCategory(ctx, session.FamilyID, req.ID)
	if err != nil {
		return nil, err
	}

	if name := strings.TrimSpace(req.Name); name != "" {
		c.Name = name
	}
	if req.Type != "" {
		if !req.Type.Valid() {
			return nil, &domain.ErrValidation{Field: "type", Message: "Tipo deve ser INCOME ou EXPENSE"}
		}
		c.Type = req.Type
	}
	if req.Icon != "" {
		c.Icon = req.Icon
	}
	if req.Color != "" {
		c.Color = req.Color
	}
	if req.Rules != nil {
		c.Rules = req.Rules
	}

	if err := s.store.UpdateCategory(ctx, c); err != nil {
		return nil, err
	}
	s.invalidateCategories(session.FamilyID)
	return c, nil
}

// DeleteCategory removes the category; its transactions become uncategorised.
func (s *FinanceService) DeleteCategory(ctx context.Context, session domain.Session, id string) (*domain.MessageResponse, error) {
	ctx, span := financeTracer.Start(ctx, "FinanceService.DeleteCategory")
	defer span.End()
	span.SetAttributes(attribute.String("category.id", id))

	if !session.IsAdmin() {
		return nil, errAdminOnly
	}
	if id == "" {
		return nil, &domain.ErrValidation{Field: "id", Message: "ID obrigatório"}
	}
	if err := s.store.DeleteCategory(ctx, session.FamilyID, id); err != nil {
		return nil, err
	}
	s.invalidateCategories(session.FamilyID)

	s.logger.Info("category deleted", zap.String("family_id", session.FamilyID), zap.String("category_id", id))
	return &domain.MessageResponse{Message: "Categoria removida"}, nil
}

// ResolveCategory finds the family category of the given type that best
// matches name: an exact case-insensitive match first, then the first
// category whose name contains name. It never creates a category.
func (s *FinanceService) ResolveCategory(ctx context.Context, familyID, name string, t domain.TransactionType) (*domain.Category, error) {
	ctx, span := financeTracer.Start(ctx, "FinanceService.ResolveCategory")
	defer span.End()
	span.SetAttributes(attribute.String("category.name", name))

	needle := strings.ToLower(strings.TrimSpace(name))
	if needle == "" {
		return nil, &domain.ErrValidation{Field: "name", Message: "Nome obrigatório"}
	}

	cats, err := s.familyCategories(ctx, familyID)
	if err != nil {
		return nil, err
	}

	var partial *domain.Category
	for i := range cats {
		if cats[i].Type != t {
			continue
		}
		candidate := strings.ToLower(cats[i].Name)
		if candidate == needle {
			c := cats[i]
			return &c, nil
		}
		if partial == nil && strings.Contains(candidate, needle) {
			c := cats[i]
			partial = &c
		}
	}
	if partial != nil {
		return partial, nil
	}
	return nil, &domain.ErrNotFound{Resource: "category", ID: name}
}

// CreateCategoryNamed creates a plain category for an unmatched name,
// bypassing the admin check for system flows such as e-mail ingestion.
func (s *FinanceService) CreateCategoryNamed(ctx context.Context, familyID, name string, t domain.TransactionType) (*domain.Category, error) {
	ctx, span := financeTracer.Start(ctx, "FinanceService.CreateCategoryNamed")
	defer span.End()

	c, err := newCategory(familyID, &domain.CategoryRequest{Name: name, Type: t})
	if err != nil {
		return nil, err
	}
	if err := s.store.CreateCategory(ctx, c); err != nil {
		return nil, err
	}
	s.invalidateCategories(familyID)

	s.logger.Info("category created for unmatched name",
		zap.String("family_id", familyID),
		zap.String("name", c.Name),
	)
	return c, nil
}
