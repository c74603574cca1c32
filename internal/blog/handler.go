package blog

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/boutique/internal/util"
	"github.com/Skotchmaster/boutique/pkg/httpx"
	"github.com/Skotchmaster/boutique/pkg/logging"
	authmw "github.com/Skotchmaster/boutique/pkg/middleware/auth"
)

type BlogHTTP struct {
	Svc *BlogService
}

func fail(l *slog.Logger, event string, err error) error {
	switch {
	case errors.Is(err, ErrValidation):
		l.Warn(event, "status", 400, "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	case errors.Is(err, ErrNotFound):
		l.Warn(event, "status", 404, "error", err)
		return echo.NewHTTPError(http.StatusNotFound, "blog not found")
	default:
		l.Error(event, "status", 500, "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "internal server error")
	}
}

// List hides drafts unless an admin asks for published=false.
func (h *BlogHTTP) List(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "blog.list")

	page := util.ParseIntDefault(c.QueryParam("page"), 1)
	if page < 1 {
		page = 1
	}
	limit := util.ParseIntDefault(c.QueryParam("limit"), DefaultLimit)
	if limit < 1 || limit > util.MaxPageSize {
		limit = DefaultLimit
	}

	total, blogs, err := h.Svc.List(ctx, Filter{
		AllStates: c.QueryParam("published") == "false" && authmw.Allows(authmw.Role(c), authmw.PermContent),
		Category:  c.QueryParam("category"),
		Featured:  c.QueryParam("featured") == "true",
		Search:    c.QueryParam("search"),
		Offset:    (page - 1) * limit,
		Limit:     limit,
	})
	if err != nil {
		return fail(l, "list_blogs_error", err)
	}
	return httpx.Paged(c, blogs, len(blogs), total, page, util.TotalPages(total, limit))
}

func (h *BlogHTTP) Get(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "blog.get")

	b, err := h.Svc.View(ctx, c.Param("slug"))
	if err != nil {
		return fail(l, "get_blog_error", err)
	}
	return httpx.OK(c, http.StatusOK, b)
}

func (h *BlogHTTP) Create(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "blog.create")

	var req BlogRequest
	if err := c.Bind(&req); err != nil {
		l.Warn("create_blog_error", "status", 400, "reason", "invalid body", "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}
	b, err := h.Svc.Create(ctx, req, authmw.Email(c))
	if err != nil {
		return fail(l, "create_blog_error", err)
	}
	l.Info("blog_created", "blog_id", b.ID, "slug", b.Slug)
	return c.JSON(http.StatusCreated, httpx.Envelope{Success: true, Data: b, Message: "blog created successfully"})
}

func (h *BlogHTTP) Update(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "blog.update")

	var req BlogRequest
	if err := c.Bind(&req); err != nil {
		l.Warn("update_blog_error", "status", 400, "reason", "invalid body", "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}
	b, err := h.Svc.Update(ctx, c.Param("slug"), req)
	if err != nil {
		return fail(l, "update_blog_error", err)
	}
	return c.JSON(http.StatusOK, httpx.Envelope{Success: true, Data: b, Message: "blog updated successfully"})
}

func (h *BlogHTTP) Delete(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "blog.delete")

	if err := h.Svc.Delete(ctx, c.Param("slug")); err != nil {
		return fail(l, "delete_blog_error", err)
	}
	return httpx.Message(c, http.StatusOK, "blog deleted successfully")
}

func (h *BlogHTTP) Comments(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "blog.comments")

	comments, err := h.Svc.Comments(ctx, c.Param("slug"))
	if err != nil {
		return fail(l, "list_comments_error", err)
	}
	return httpx.List(c, comments, len(comments))
}

func (h *BlogHTTP) AddComment(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "blog.add_comment")

	userID, err := uuid.Parse(authmw.UserID(c))
	if err != nil {
		l.Warn("add_comment_error", "status", 401, "reason", "no user in session")
		return echo.NewHTTPError(http.StatusUnauthorized, "authentication required")
	}
	var req CommentRequest
	if err := c.Bind(&req); err != nil {
		l.Warn("add_comment_error", "status", 400, "reason", "invalid body", "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	cm, err := h.Svc.AddComment(ctx, c.Param("slug"), userID, req.Content)
	if err != nil {
		return fail(l, "add_comment_error", err)
	}
	return c.JSON(http.StatusCreated, httpx.Envelope{Success: true, Data: cm, Message: "comment posted successfully"})
}

func (h *BlogHTTP) AdminComments(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "blog.admin_comments")

	comments, err := h.Svc.AllComments(ctx)
	if err != nil {
		return fail(l, "admin_list_comments_error", err)
	}
	return httpx.List(c, comments, len(comments))
}

func (h *BlogHTTP) DeleteComment(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "blog.delete_comment")

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		l.Warn("delete_comment_error", "status", 400, "reason", "id is not a uuid", "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, "invalid comment id format")
	}
	if err := h.Svc.DeleteComment(ctx, id); err != nil {
		if errors.Is(err, ErrNotFound) {
			l.Warn("delete_comment_error", "status", 404, "error", err)
			return echo.NewHTTPError(http.StatusNotFound, "comment not found")
		}
		return fail(l, "delete_comment_error", err)
	}
	return httpx.Message(c, http.StatusOK, "comment deleted successfully")
}
