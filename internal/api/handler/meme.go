package handler

import (
	"encoding/json"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/yizhiakuya/MemeStore/internal/domain"
	"github.com/yizhiakuya/MemeStore/internal/repository"
	"github.com/yizhiakuya/MemeStore/internal/service"
)

// MemeHandler handles meme-related endpoints.
type MemeHandler struct {
	memes    *service.MemeService
	importer *service.Importer
	maxBytes int64
}

// NewMemeHandler creates a new meme handler.
// Parameters:
//   - memes: meme pipeline service.
//   - importer: remote image importer.
//   - maxFileSizeMB: upload size cap in megabytes.
// Returns:
//   - *MemeHandler: initialized handler.
func NewMemeHandler(memes *service.MemeService, importer *service.Importer, maxFileSizeMB int) *MemeHandler {
	return &MemeHandler{
		memes:    memes,
		importer: importer,
		maxBytes: int64(maxFileSizeMB) * 1024 * 1024,
	}
}

// List handles GET /api/v1/memes.
func (h *MemeHandler) List(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))

	filter := &repository.MemeFilter{
		Page:       page,
		Limit:      limit,
		CategoryID: c.Query("categoryId"),
		Tags:       splitTags(c.Query("tags")),
		Search:     c.Query("search"),
		SortBy:     c.DefaultQuery("sortBy", "createdAt"),
		Order:      c.DefaultQuery("order", "desc"),
	}

	result, err := h.memes.ListMemes(c.Request.Context(), filter)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// Get handles GET /api/v1/memes/:id.
func (h *MemeHandler) Get(c *gin.Context) {
	meme, err := h.memes.GetMeme(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, meme)
}

// textMemeRequest is the JSON body of a text meme create.
type textMemeRequest struct {
	Type        string   `json:"type"`
	Title       *string  `json:"title"`
	Description *string  `json:"description"`
	CategoryID  *string  `json:"categoryId"`
	Tags        []string `json:"tags"`
	TextContent string   `json:"textContent"`
}

// Create handles POST /api/v1/memes. Image memes arrive as multipart form
// data with a "file" part; text memes as a JSON body.
func (h *MemeHandler) Create(c *gin.Context) {
	contentType := c.ContentType()

	var in *service.CreateMemeInput
	if strings.HasPrefix(contentType, "multipart/") {
		upload, err := h.readUpload(c)
		if err != nil {
			respondError(c, err)
			return
		}
		in = &service.CreateMemeInput{
			Type:        memeTypeOrDefault(c.PostForm("type"), domain.MemeTypeImage),
			Title:       optionalForm(c, "title"),
			Description: optionalForm(c, "description"),
			CategoryID:  optionalForm(c, "categoryId"),
			TagNames:    parseTagField(c.PostForm("tags")),
			File:        upload,
			TextContent: c.PostForm("textContent"),
		}
	} else {
		var req textMemeRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondError(c, domain.Validation("invalid request body"))
			return
		}
		in = &service.CreateMemeInput{
			Type:        memeTypeOrDefault(req.Type, domain.MemeTypeText),
			Title:       req.Title,
			Description: req.Description,
			CategoryID:  req.CategoryID,
			TagNames:    req.Tags,
			TextContent: req.TextContent,
		}
	}

	meme, err := h.memes.CreateMeme(c.Request.Context(), in)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, meme)
}

// updateMemeRequest distinguishes absent fields (nil) from explicit values.
type updateMemeRequest struct {
	Title       *string   `json:"title"`
	Description *string   `json:"description"`
	CategoryID  *string   `json:"categoryId"`
	Tags        *[]string `json:"tags"`
}

// Update handles PUT /api/v1/memes/:id.
func (h *MemeHandler) Update(c *gin.Context) {
	var req updateMemeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, domain.Validation("invalid request body"))
		return
	}

	meme, err := h.memes.UpdateMeme(c.Request.Context(), c.Param("id"), &service.UpdateMemeInput{
		Title:       req.Title,
		Description: req.Description,
		CategoryID:  req.CategoryID,
		TagNames:    req.Tags,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, meme)
}

// Delete handles DELETE /api/v1/memes/:id.
func (h *MemeHandler) Delete(c *gin.Context) {
	if err := h.memes.DeleteMeme(c.Request.Context(), c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "meme deleted successfully"})
}

// Download handles POST /api/v1/memes/:id/download.
func (h *MemeHandler) Download(c *gin.Context) {
	if err := h.memes.RecordDownload(c.Request.Context(), c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "download recorded"})
}

// importRequest is the JSON body of an import-by-URL create.
type importRequest struct {
	URL         string   `json:"url" binding:"required"`
	Title       *string  `json:"title"`
	Description *string  `json:"description"`
	CategoryID  *string  `json:"categoryId"`
	Tags        []string `json:"tags"`
}

// Import handles POST /api/v1/memes/import.
func (h *MemeHandler) Import(c *gin.Context) {
	var req importRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, domain.Validation("a valid image url is required"))
		return
	}

	meme, err := h.importer.Import(c.Request.Context(), &service.ImportInput{
		URL:         req.URL,
		Title:       req.Title,
		Description: req.Description,
		CategoryID:  req.CategoryID,
		TagNames:    req.Tags,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, meme)
}

// readUpload extracts and bounds the multipart file payload.
func (h *MemeHandler) readUpload(c *gin.Context) (*service.FileUpload, error) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		// Text memes may arrive as multipart too; let the pipeline's
		// type validation decide whether a file was required.
		return nil, nil
	}
	if fileHeader.Size > h.maxBytes {
		return nil, domain.Validation("file exceeds the size limit")
	}

	f, err := fileHeader.Open()
	if err != nil {
		return nil, domain.Validation("failed to read uploaded file")
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, h.maxBytes+1))
	if err != nil {
		return nil, domain.Validation("failed to read uploaded file")
	}
	if int64(len(data)) > h.maxBytes {
		return nil, domain.Validation("file exceeds the size limit")
	}

	return &service.FileUpload{
		Data:     data,
		Filename: fileHeader.Filename,
		MimeType: fileHeader.Header.Get("Content-Type"),
	}, nil
}

// memeTypeOrDefault parses the type field, defaulting when absent.
func memeTypeOrDefault(raw string, def domain.MemeType) domain.MemeType {
	switch raw {
	case string(domain.MemeTypeImage):
		return domain.MemeTypeImage
	case string(domain.MemeTypeText):
		return domain.MemeTypeText
	case "":
		return def
	default:
		return domain.MemeType(raw)
	}
}

// optionalForm returns a pointer to the form value, or nil when absent.
func optionalForm(c *gin.Context, key string) *string {
	if v, ok := c.GetPostForm(key); ok && v != "" {
		return &v
	}
	return nil
}

// parseTagField accepts tags either as a JSON array string or as a
// comma-separated list.
func parseTagField(raw string) []string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	if strings.HasPrefix(raw, "[") {
		var tags []string
		if err := json.Unmarshal([]byte(raw), &tags); err == nil {
			return tags
		}
	}
	return splitTags(raw)
}

// splitTags splits a comma-separated tag list, dropping empties.
func splitTags(raw string) []string {
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	tags := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			tags = append(tags, p)
		}
	}
	return tags
}
