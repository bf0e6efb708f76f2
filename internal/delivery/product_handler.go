package delivery

import (
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"strconv"

	"catalog_service/internal/domain"
	"catalog_service/internal/flash"
	"catalog_service/internal/storage"
	"catalog_service/internal/usecase"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

const (
	listPath        = "/admin/products"
	flashCookieName = "flash_id"
)

type ProductHandler struct {
	useCase usecase.ProductUseCase
	flash   flash.Store
	log     *logrus.Logger
}

func NewProductHandler(uc usecase.ProductUseCase, flashStore flash.Store, logger *logrus.Logger) *ProductHandler {
	return &ProductHandler{
		useCase: uc,
		flash:   flashStore,
		log:     logger,
	}
}

func (h *ProductHandler) RegisterRoutes(router gin.IRouter) {
	products := router.Group(listPath)
	{
		products.GET("", h.ListProducts)
		products.GET("/create", h.CreateForm)
		products.POST("", h.CreateProduct)
		products.GET("/:id/update", h.UpdateForm)
		products.POST("/:id", h.UpdateProduct)
		products.POST("/:id/delete", h.DeleteProduct)
	}
}

type listView struct {
	Products []domain.ProductListItem `json:"products"`
	Notice   string                   `json:"notice,omitempty"`
}

func (h *ProductHandler) ListProducts(c *gin.Context) {
	products, err := h.useCase.ListProducts(c.Request.Context())
	if err != nil {
		h.log.Errorf("Failed to list products: %v", err)
		ErrorResponse(c, http.StatusInternalServerError, "Failed to retrieve products: "+err.Error())
		return
	}

	view := listView{Products: products}
	if key, err := c.Cookie(flashCookieName); err == nil && key != "" {
		notice, err := h.flash.Pop(c.Request.Context(), key)
		if err != nil {
			h.log.Warnf("Failed to read flash message: %v", err)
		}
		view.Notice = notice
	}

	h.log.Infof("Retrieved %d products", len(products))
	SuccessResponse(c, http.StatusOK, "Products retrieved successfully", view)
}

func (h *ProductHandler) CreateForm(c *gin.Context) {
	lookups, err := h.useCase.CreateForm(c.Request.Context())
	if err != nil {
		h.log.Errorf("Failed to load create form: %v", err)
		ErrorResponse(c, http.StatusInternalServerError, "Failed to load form: "+err.Error())
		return
	}
	SuccessResponse(c, http.StatusOK, "Create form loaded", formView{Form: domain.ProductForm{}, Lookups: *lookups})
}

func (h *ProductHandler) CreateProduct(c *gin.Context) {
	form, err := bindProductForm(c)
	if err != nil {
		h.log.Warnf("Failed to bind create product form: %v", err)
		ErrorResponse(c, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}

	outcome, err := h.useCase.CreateProduct(c.Request.Context(), form)
	if err != nil {
		h.respondError(c, err, "Failed to create product")
		return
	}

	h.log.Infof("Product created successfully: ID %d, Name %s", outcome.ProductID, form.Name)
	h.redirectToList(c, outcome.Warning)
}

func (h *ProductHandler) UpdateForm(c *gin.Context) {
	id, ok := h.productID(c)
	if !ok {
		return
	}

	view, err := h.useCase.UpdateForm(c.Request.Context(), id)
	if err != nil {
		h.respondError(c, err, "Failed to load product")
		return
	}
	SuccessResponse(c, http.StatusOK, "Update form loaded", view)
}

func (h *ProductHandler) UpdateProduct(c *gin.Context) {
	id, ok := h.productID(c)
	if !ok {
		return
	}

	form, err := bindProductForm(c)
	if err != nil {
		h.log.Warnf("Failed to bind update form for product ID %d: %v", id, err)
		ErrorResponse(c, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}

	outcome, err := h.useCase.UpdateProduct(c.Request.Context(), id, form)
	if err != nil {
		h.respondError(c, err, "Failed to update product")
		return
	}

	h.log.Infof("Product updated successfully: ID %d", id)
	h.redirectToList(c, outcome.Warning)
}

func (h *ProductHandler) DeleteProduct(c *gin.Context) {
	id, ok := h.productID(c)
	if !ok {
		return
	}

	if err := h.useCase.DeleteProduct(c.Request.Context(), id); err != nil {
		h.respondError(c, err, "Failed to delete product")
		return
	}

	h.log.Infof("Product deleted successfully: ID %d", id)
	c.Redirect(http.StatusSeeOther, listPath)
}

func (h *ProductHandler) productID(c *gin.Context) (int, bool) {
	idStr := c.Param("id")
	id, err := strconv.Atoi(idStr)
	if err != nil || id <= 0 {
		h.log.Warnf("Invalid product ID parameter: %s", idStr)
		ErrorResponse(c, http.StatusBadRequest, "Invalid product ID format")
		return 0, false
	}
	return id, true
}

func (h *ProductHandler) respondError(c *gin.Context, err error, message string) {
	var rejection *domain.FormRejection
	if errors.As(err, &rejection) {
		RejectionResponse(c, rejection)
		return
	}

	statusCode := mapErrorToStatus(err)
	if statusCode >= http.StatusInternalServerError {
		h.log.Errorf("%s: %v", message, err)
	} else {
		h.log.Warnf("%s: %v", message, err)
	}
	ErrorResponse(c, statusCode, message+": "+err.Error())
}

// redirectToList stores a pending warning for the next request of this browser and redirects.
func (h *ProductHandler) redirectToList(c *gin.Context, warning string) {
	if warning != "" {
		key, err := c.Cookie(flashCookieName)
		if err != nil || key == "" {
			key = uuid.NewString()
			c.SetSameSite(http.SameSiteLaxMode)
			c.SetCookie(flashCookieName, key, 0, "/", "", false, true)
		}
		if err := h.flash.Put(c.Request.Context(), key, warning); err != nil {
			h.log.Warnf("Failed to store flash message: %v", err)
		}
	}
	c.Redirect(http.StatusSeeOther, listPath)
}

// bindProductForm reads the submitted form. Values that cannot be converted
// are recorded as field errors on the form so they are reported with the
// other validation failures.
func bindProductForm(c *gin.Context) (*domain.ProductForm, error) {
	form := &domain.ProductForm{
		Name:        c.PostForm("Name"),
		SKU:         c.PostForm("SKU"),
		Description: c.PostForm("Description"),
		Price:       c.PostForm("Price"),
	}

	if raw := c.PostForm("CategoryId"); raw != "" {
		id, err := strconv.Atoi(raw)
		if err != nil {
			form.BindErrors = append(form.BindErrors, domain.FieldError{
				Field:   "CategoryId",
				Message: "CategoryId must be a number",
			})
		}
		form.CategoryID = id
	}

	form.TagIDs = parseIDs(c, form, "TagIds")
	form.ColorIDs = parseIDs(c, form, "ColorIds")
	form.SizeIDs = parseIDs(c, form, "SizeIds")
	form.ImageIDs = parseIDs(c, form, "ImageIds")

	multipartForm, err := c.MultipartForm()
	if err != nil {
		if errors.Is(err, http.ErrNotMultipart) {
			return form, nil
		}
		return nil, err
	}
	form.MainPhoto = firstFile(multipartForm, "MainPhoto")
	form.HoverPhoto = firstFile(multipartForm, "HoverPhoto")
	for _, fh := range multipartForm.File["Photos"] {
		form.Photos = append(form.Photos, storage.FromMultipart("Photos", fh))
	}
	return form, nil
}

func firstFile(form *multipart.Form, field string) *domain.Upload {
	files := form.File[field]
	if len(files) == 0 {
		return nil
	}
	return storage.FromMultipart(field, files[0])
}

// parseIDs keeps the numeric ids of a multi-value field and records one field error if any value is not numeric.
func parseIDs(c *gin.Context, form *domain.ProductForm, field string) []int {
	values := c.PostFormArray(field)
	ids := make([]int, 0, len(values))
	reported := false
	for _, v := range values {
		if v == "" {
			continue
		}
		id, err := strconv.Atoi(v)
		if err != nil {
			if !reported {
				form.BindErrors = append(form.BindErrors, domain.FieldError{
					Field:   field,
					Message: fmt.Sprintf("%s contains a non-numeric id %q", field, v),
				})
				reported = true
			}
			continue
		}
		ids = append(ids, id)
	}
	return ids
}
