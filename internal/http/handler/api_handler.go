package handler

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/sifan077/PortalLink/internal/app/model"
	"github.com/sifan077/PortalLink/internal/app/service"
	"go.uber.org/zap"
)

// APIDeps groups dependencies required by API handlers.
type APIDeps struct {
	Logger     *zap.Logger
	Links      service.LinkService
	Highlights service.HighlightService
	Queries    service.QueryService
}

// APIHandler implements the portal link management endpoints.
type APIHandler struct {
	logger     *zap.Logger
	links      service.LinkService
	highlights service.HighlightService
	queries    service.QueryService
}

// NewAPIHandler creates an API handler with the provided dependencies.
func NewAPIHandler(deps APIDeps) *APIHandler {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &APIHandler{
		logger:     logger,
		links:      deps.Links,
		highlights: deps.Highlights,
		queries:    deps.Queries,
	}
}

// Register wires API routes onto the provided router.
func (h *APIHandler) Register(router fiber.Router) {
	api := router.Group("/api")
	{
		api.Get("/portals", h.ListPortals)
		api.Get("/highlight-positions", h.ListPositions)

		portal := api.Group("/portals/:portalId")
		{
			portal.Get("/highlights", h.GetHighlights)
			portal.Put("/highlights/:position", h.SetHighlightedEntity)
		}

		entities := api.Group("/entities/:kind")
		{
			entities.Get("/", h.ListVisibleEntities)
			entities.Get("/:id/portals", h.ListLinks)
			entities.Post("/:id/portals", h.LinkPortal)
			entities.Post("/:id/portals/bulk", h.BulkLink)
			entities.Post("/:id/portals/sync-redirect", h.SyncRedirect)
			entities.Patch("/:id/portals/:portalId", h.UpdateLink)
			entities.Delete("/:id/portals/:portalId", h.UnlinkPortal)
		}
	}
}

// LinkPortalRequest is the body of POST /api/entities/:kind/:id/portals.
type LinkPortalRequest struct {
	PortalID int64 `json:"portal_id"`
	// Title seeds the slug; the entity's own title is used when empty.
	Title string `json:"title,omitempty"`
}

// BulkLinkRequest is the body of POST /api/entities/:kind/:id/portals/bulk.
// Portal ids are loosely typed on purpose: forms send numbers and strings.
type BulkLinkRequest struct {
	PortalIDs []any  `json:"portal_ids"`
	Title     string `json:"title,omitempty"`
}

// UpdateLinkRequest is the body of PATCH /api/entities/:kind/:id/portals/:portalId.
type UpdateLinkRequest struct {
	Status            *string `json:"status,omitempty"`
	HighlightPosition *string `json:"highlight_position,omitempty"`
}

// SetHighlightRequest is the body of PUT /api/portals/:portalId/highlights/:position.
// An empty entity id empties the slot.
type SetHighlightRequest struct {
	EntityID string `json:"entity_id"`
}

// ListPortals handles GET /api/portals
func (h *APIHandler) ListPortals(c *fiber.Ctx) error {
	portals, err := h.queries.ListPortals(c.UserContext())
	if err != nil {
		return h.fail(c, "list portals", err)
	}
	return c.JSON(portals)
}

// ListPositions handles GET /api/highlight-positions
func (h *APIHandler) ListPositions(c *fiber.Ctx) error {
	return c.JSON(h.highlights.Positions())
}

// GetHighlights handles GET /api/portals/:portalId/highlights
func (h *APIHandler) GetHighlights(c *fiber.Ctx) error {
	portalID, ok := portalParam(c)
	if !ok {
		return badRequest(c, "portalId must be a positive integer")
	}

	highlights, err := h.highlights.GetHighlightedEntities(c.UserContext(), portalID)
	if err != nil {
		return h.fail(c, "get highlights", err)
	}
	return c.JSON(highlights)
}

// SetHighlightedEntity handles PUT /api/portals/:portalId/highlights/:position
func (h *APIHandler) SetHighlightedEntity(c *fiber.Ctx) error {
	portalID, ok := portalParam(c)
	if !ok {
		return badRequest(c, "portalId must be a positive integer")
	}

	var req SetHighlightRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "invalid request body")
	}

	highlights, err := h.highlights.SetHighlightedEntityForPosition(c.UserContext(), portalID, c.Params("position"), strings.TrimSpace(req.EntityID))
	if err != nil {
		return h.fail(c, "set highlighted entity", err)
	}
	return c.JSON(highlights)
}

// ListVisibleEntities handles GET /api/entities/:kind?portals=a,b
func (h *APIHandler) ListVisibleEntities(c *fiber.Ctx) error {
	kind, err := model.ParseKind(c.Params("kind"))
	if err != nil {
		return h.fail(c, "list entities", err)
	}

	var names []string
	if raw := c.Query("portals"); raw != "" {
		names = strings.Split(raw, ",")
	}

	entities, err := h.queries.ListVisibleEntities(c.UserContext(), kind, names)
	if err != nil {
		return h.fail(c, "list entities", err)
	}
	return c.JSON(entities)
}

// ListLinks handles GET /api/entities/:kind/:id/portals
func (h *APIHandler) ListLinks(c *fiber.Ctx) error {
	kind, err := model.ParseKind(c.Params("kind"))
	if err != nil {
		return h.fail(c, "list links", err)
	}

	links, err := h.links.ListLinks(c.UserContext(), kind, c.Params("id"))
	if err != nil {
		return h.fail(c, "list links", err)
	}
	return c.JSON(links)
}

// LinkPortal handles POST /api/entities/:kind/:id/portals
func (h *APIHandler) LinkPortal(c *fiber.Ctx) error {
	kind, err := model.ParseKind(c.Params("kind"))
	if err != nil {
		return h.fail(c, "link portal", err)
	}

	var req LinkPortalRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "invalid request body")
	}
	if req.PortalID <= 0 {
		return badRequest(c, "portal_id must be a positive integer")
	}

	links, err := h.links.Link(c.UserContext(), kind, c.Params("id"), req.PortalID, req.Title)
	if err != nil {
		return h.fail(c, "link portal", err)
	}
	return c.JSON(links)
}

// BulkLink handles POST /api/entities/:kind/:id/portals/bulk
func (h *APIHandler) BulkLink(c *fiber.Ctx) error {
	kind, err := model.ParseKind(c.Params("kind"))
	if err != nil {
		return h.fail(c, "bulk link", err)
	}

	var req BulkLinkRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "invalid request body")
	}

	result, err := h.links.BulkLink(c.UserContext(), kind, c.Params("id"), req.PortalIDs, req.Title)
	if err != nil {
		return h.fail(c, "bulk link", err)
	}
	if result.Err != nil {
		h.logger.Warn("bulk link partially failed",
			zap.String("kind", string(kind)),
			zap.String("entity_id", c.Params("id")),
			zap.Error(result.Err))
	}
	return c.JSON(result)
}

// SyncRedirect handles POST /api/entities/publications/:id/portals/sync-redirect
func (h *APIHandler) SyncRedirect(c *fiber.Ctx) error {
	kind, err := model.ParseKind(c.Params("kind"))
	if err != nil {
		return h.fail(c, "sync redirect", err)
	}
	if kind != model.KindPublication {
		return badRequest(c, "redirect targets exist on publications only")
	}

	links, err := h.links.SyncRedirectURL(c.UserContext(), c.Params("id"))
	if err != nil {
		return h.fail(c, "sync redirect", err)
	}
	return c.JSON(links)
}

// UpdateLink handles PATCH /api/entities/:kind/:id/portals/:portalId
func (h *APIHandler) UpdateLink(c *fiber.Ctx) error {
	kind, err := model.ParseKind(c.Params("kind"))
	if err != nil {
		return h.fail(c, "update link", err)
	}
	portalID, ok := portalParam(c)
	if !ok {
		return badRequest(c, "portalId must be a positive integer")
	}

	var req UpdateLinkRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "invalid request body")
	}
	if req.Status == nil && req.HighlightPosition == nil {
		return h.fail(c, "update link", errNothingToUpdate)
	}
	if req.HighlightPosition != nil && kind != model.KindArticle {
		return h.fail(c, "update link", service.ErrHighlightUnsupported)
	}

	ctx := c.UserContext()
	entityID := c.Params("id")

	var links []model.Link
	if req.Status != nil {
		if links, err = h.links.UpdateStatus(ctx, kind, entityID, portalID, *req.Status); err != nil {
			return h.fail(c, "update link", err)
		}
	}
	if req.HighlightPosition != nil {
		if links, err = h.highlights.SetHighlightPosition(ctx, entityID, portalID, *req.HighlightPosition); err != nil {
			return h.fail(c, "update link", err)
		}
	}
	return c.JSON(links)
}

// UnlinkPortal handles DELETE /api/entities/:kind/:id/portals/:portalId
func (h *APIHandler) UnlinkPortal(c *fiber.Ctx) error {
	kind, err := model.ParseKind(c.Params("kind"))
	if err != nil {
		return h.fail(c, "unlink portal", err)
	}
	portalID, ok := portalParam(c)
	if !ok {
		return badRequest(c, "portalId must be a positive integer")
	}

	links, err := h.links.Unlink(c.UserContext(), kind, c.Params("id"), portalID)
	if err != nil {
		return h.fail(c, "unlink portal", err)
	}
	return c.JSON(links)
}

func portalParam(c *fiber.Ctx) (int64, bool) {
	id, err := c.ParamsInt("portalId")
	if err != nil || id <= 0 {
		return 0, false
	}
	return int64(id), true
}
