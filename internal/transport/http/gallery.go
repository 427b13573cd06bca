package http

import (
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"zozotech/internal/transport/http/dto"
	"zozotech/internal/transport/http/dto/response"

	"github.com/labstack/echo/v4"
)

func productQuery(c echo.Context) string {
	if v := c.QueryParam("product"); v != "" {
		return v
	}

	return c.QueryParam("slug")
}

func (r *Routers) ListProducts(c echo.Context) error {
	log := r.log.With(slog.String("op", "http.routers.ListProducts"))

	products, err := r.GalleryService.ListProducts(c.Request().Context())
	if err != nil {
		return r.fail(c, log, err)
	}

	return c.JSON(http.StatusOK, response.SuccessResponse(products))
}

// ListGallery godoc
// @Summary Product gallery in display order
// @Description admin=1 includes unpublished items and requires an admin.
// @Param product query string true "product slug"
// @Router /api/v1/gallery [get]
func (r *Routers) ListGallery(c echo.Context) error {
	includeUnpublished := ParseBoolean(c.QueryParam("admin"), false)
	if includeUnpublished {
		return r.RequireAdmin(r.listGallery(true))(c)
	}

	return r.listGallery(false)(c)
}

// AdminListGallery always includes unpublished items.
func (r *Routers) AdminListGallery(c echo.Context) error {
	return r.listGallery(true)(c)
}

func (r *Routers) listGallery(includeUnpublished bool) echo.HandlerFunc {
	return func(c echo.Context) error {
		const op = "http.routers.ListGallery"

		log := r.log.With(
			slog.String("op", op),
		)

		slug := productQuery(c)
		if slug == "" {
			return badRequest(c, "product is required")
		}

		product, items, err := r.GalleryService.ListMedia(c.Request().Context(), slug, includeUnpublished)
		if err != nil {
			return r.fail(c, log, err)
		}

		return c.JSON(http.StatusOK, response.SuccessResponse(dto.GalleryListResponse{
			Product: product,
			Items:   items,
		}))
	}
}

func optionalFormValue(c echo.Context, name string) *string {
	form, err := c.MultipartForm()
	if err != nil {
		return nil
	}
	values, ok := form.Value[name]
	if !ok || len(values) == 0 {
		return nil
	}
	v := strings.TrimSpace(values[0])

	return &v
}

// UploadGallery godoc
// @Summary Upload a batch of gallery images
// @Accept multipart/form-data
// @Param product_slug formData string true "product slug"
// @Param files formData file true "images, repeatable"
// @Param sort_order formData integer false "base sort order"
// @Param is_cover formData boolean false "first file becomes the cover"
// @Param is_published formData boolean false "defaults to true"
// @Failure 413 {object} response.ErrorResponse
// @Router /api/v1/admin/gallery [post]
func (r *Routers) UploadGallery(c echo.Context) error {
	const op = "http.routers.UploadGallery"

	log := r.log.With(
		slog.String("op", op),
	)

	form, err := c.MultipartForm()
	if err != nil {
		log.Warn("invalid multipart form", slog.String("error", err.Error()))
		return badRequest(c, "multipart form expected")
	}

	files := form.File["files"]
	if len(files) == 0 {
		files = form.File["file"]
	}
	if len(files) == 0 {
		return badRequest(c, "at least one file is required")
	}

	base := 0
	if raw := strings.TrimSpace(c.FormValue("sort_order")); raw != "" {
		base, err = strconv.Atoi(raw)
		if err != nil {
			return badRequest(c, "sort_order must be an integer")
		}
	}

	input := dto.GalleryUploadInput{
		ProductSlug:   c.FormValue("product_slug"),
		Files:         files,
		Title:         optionalFormValue(c, "title"),
		Caption:       optionalFormValue(c, "caption"),
		Alt:           optionalFormValue(c, "alt"),
		BaseSortOrder: base,
		IsCover:       ParseBoolean(c.FormValue("is_cover"), false),
		IsPublished:   ParseBoolean(c.FormValue("is_published"), true),
	}

	log.Debug("upload batch",
		slog.String("product", input.ProductSlug),
		slog.Int("files", len(files)),
		slog.Int("sort_order", base),
	)

	created, err := r.GalleryService.UploadBatch(c.Request().Context(), input)
	if err != nil {
		return r.fail(c, log, err)
	}

	return c.JSON(http.StatusCreated, response.SuccessResponse(created))
}

func parseMediaID(c echo.Context) (int64, error) {
	return strconv.ParseInt(c.Param("id"), 10, 64)
}

func (r *Routers) UpdateGalleryItem(c echo.Context) error {
	const op = "http.routers.UpdateGalleryItem"

	log := r.log.With(
		slog.String("op", op),
	)

	id, err := parseMediaID(c)
	if err != nil {
		return badRequest(c, "invalid id")
	}

	var req dto.MediaPatchRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, err.Error())
	}

	item, err := r.GalleryService.UpdateMedia(c.Request().Context(), id, req)
	if err != nil {
		return r.fail(c, log, err)
	}

	return c.JSON(http.StatusOK, response.SuccessResponse(item))
}

func (r *Routers) DeleteGalleryItem(c echo.Context) error {
	log := r.log.With(slog.String("op", "http.routers.DeleteGalleryItem"))

	id, err := parseMediaID(c)
	if err != nil {
		return badRequest(c, "invalid id")
	}

	if err := r.GalleryService.DeleteMedia(c.Request().Context(), id); err != nil {
		return r.fail(c, log, err)
	}

	return c.NoContent(http.StatusNoContent)
}

func (r *Routers) SetGalleryCover(c echo.Context) error {
	log := r.log.With(slog.String("op", "http.routers.SetGalleryCover"))

	id, err := parseMediaID(c)
	if err != nil {
		return badRequest(c, "invalid id")
	}

	item, err := r.GalleryService.SetCoverByID(c.Request().Context(), id)
	if err != nil {
		return r.fail(c, log, err)
	}

	return c.JSON(http.StatusOK, response.SuccessResponse(item))
}

func (r *Routers) ReorderGallery(c echo.Context) error {
	const op = "http.routers.ReorderGallery"

	log := r.log.With(
		slog.String("op", op),
	)

	var req dto.ReorderRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(c, err.Error())
	}
	if err := c.Validate(req); err != nil {
		return badRequest(c, err.Error())
	}

	keys, err := r.GalleryService.ReorderBySlug(c.Request().Context(), req.ProductSlug, req.IDs)
	if err != nil {
		return r.fail(c, log, err)
	}

	return c.JSON(http.StatusOK, response.SuccessResponse(keys))
}
