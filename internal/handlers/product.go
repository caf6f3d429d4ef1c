package handlers

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"catalog_back_end/internal/models"
)

// MaxImageSize borne la taille d'une image envoyée en multipart.
const MaxImageSize = 10 << 20

// Catalog est le service produits consommé par les handlers.
type Catalog interface {
	List(ctx context.Context) ([]models.Product, error)
	Get(ctx context.Context, id string) (*models.Product, error)
	Search(ctx context.Context, query string) ([]models.Product, error)
	Create(ctx context.Context, in models.ProductInput) (*models.Product, error)
	Update(ctx context.Context, id string, patch models.ProductPatch) (*models.Product, error)
	Delete(ctx context.Context, id string) error
	AddImage(ctx context.Context, id, filename, contentType string, size int64, r io.Reader) (*models.Product, error)
}

type ProductHandler struct {
	catalog Catalog
	logger  *slog.Logger
}

func NewProductHandler(catalog Catalog, logger *slog.Logger) *ProductHandler {
	return &ProductHandler{catalog: catalog, logger: logger}
}

type createProductRequest struct {
	Name        *string          `json:"name" binding:"required"`
	Price       *float64         `json:"price" binding:"required,gte=0"`
	Description *string          `json:"description" binding:"required"`
	Images      []string         `json:"images"`
	Variants    []models.Variant `json:"variants"`
}

//
// --- PUBLIC ---
//

// 🟢 GET /products
func (h *ProductHandler) List(c *gin.Context) {
	products, err := h.catalog.List(c.Request.Context())
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, products)
}

// 🟢 GET /products/:id
func (h *ProductHandler) Get(c *gin.Context) {
	product, err := h.catalog.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, product)
}

// 🔎 GET /products/search?q=
func (h *ProductHandler) Search(c *gin.Context) {
	query := strings.TrimSpace(c.Query("q"))
	if query == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "paramètre 'q' manquant"})
		return
	}
	results, err := h.catalog.Search(c.Request.Context(), query)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, results)
}

//
// --- ADMIN ---
//

// 🟢 POST /admin/products
func (h *ProductHandler) Create(c *gin.Context) {
	var input createProductRequest
	if err := c.ShouldBindJSON(&input); err != nil {
		badRequest(c, h.logger, msgInvalidProduct, err)
		return
	}

	product, err := h.catalog.Create(c.Request.Context(), models.ProductInput{
		Name:        *input.Name,
		Price:       *input.Price,
		Description: *input.Description,
		Images:      input.Images,
		Variants:    input.Variants,
	})
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, product)
}

// ✏️ PUT /admin/products/:id : seuls les champs présents (et non null) sont modifiés.
// Un corps vide vaut une mise à jour sans champ (seul updated_at change).
func (h *ProductHandler) Update(c *gin.Context) {
	var patch models.ProductPatch
	if err := c.ShouldBindJSON(&patch); err != nil && !errors.Is(err, io.EOF) {
		badRequest(c, h.logger, msgInvalidProduct, err)
		return
	}

	product, err := h.catalog.Update(c.Request.Context(), c.Param("id"), patch)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, product)
}

// 🗑️ DELETE /admin/products/:id
func (h *ProductHandler) Delete(c *gin.Context) {
	if err := h.catalog.Delete(c.Request.Context(), c.Param("id")); err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Produit supprimé avec succès"})
}

// 🖼️ POST /admin/products/:id/images (multipart, champ "file")
func (h *ProductHandler) UploadImage(c *gin.Context) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Champ 'file' manquant"})
		return
	}
	if fileHeader.Size > MaxImageSize {
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "Image trop volumineuse"})
		return
	}
	contentType := fileHeader.Header.Get("Content-Type")
	if !strings.HasPrefix(contentType, "image/") {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Le fichier doit être une image"})
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	defer file.Close()

	product, err := h.catalog.AddImage(c.Request.Context(), c.Param("id"), fileHeader.Filename, contentType, fileHeader.Size, file)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, product)
}
