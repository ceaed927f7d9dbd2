package handlers

import (
	"encoding/json"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/hibiken/asynq"

	"github.com/wisetreee/safe-haven/internal/models"
	"github.com/wisetreee/safe-haven/internal/services"
	"github.com/wisetreee/safe-haven/internal/storage"
	"github.com/wisetreee/safe-haven/internal/tasks"
)

// HousingHandler serves the public catalog and the staff housing management
// endpoints.
type HousingHandler struct {
	housings   services.IHousingService
	s3         storage.IS3Storage
	taskClient IAsynqClient
}

func NewHousingHandler(housings services.IHousingService, s3 storage.IS3Storage, taskClient IAsynqClient) *HousingHandler {
	return &HousingHandler{housings: housings, s3: s3, taskClient: taskClient}
}

func (h *HousingHandler) List(c *gin.Context) {
	list, err := h.housings.ListHousings(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

func (h *HousingHandler) Get(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	housing, err := h.housings.GetHousing(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, housing)
}

type setAvailabilityRequest struct {
	Availability models.Availability `json:"availability" binding:"required"`
}

// SetAvailability lets staff set the stored base availability flag.
func (h *HousingHandler) SetAvailability(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var req setAvailabilityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "availability is required"})
		return
	}
	switch req.Availability {
	case models.AvailabilityAvailable, models.AvailabilityLimited, models.AvailabilityUnavailable:
	default:
		c.JSON(http.StatusBadRequest, gin.H{"message": "availability must be available, limited or unavailable"})
		return
	}

	if err := h.housings.SetAvailability(c.Request.Context(), id, req.Availability); err != nil {
		respondError(c, err)
		return
	}
	housing, err := h.housings.GetHousing(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, housing)
}

type photoUploadRequest struct {
	Filename    string `json:"filename" binding:"required"`
	ContentType string `json:"contentType" binding:"required"`
}

// PhotoUploadURL returns a presigned S3 PUT URL for a housing photo.
func (h *HousingHandler) PhotoUploadURL(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var req photoUploadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "filename and contentType are required"})
		return
	}

	// Verify the housing exists before handing out an upload slot.
	if _, err := h.housings.GetHousing(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}

	url, key, err := h.s3.GeneratePresignedPutURL(c.Request.Context(), id, req.Filename, req.ContentType)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"uploadUrl": url, "key": key})
}

type photoAttachRequest struct {
	Key string `json:"key" binding:"required"`
}

// PhotoAttach enqueues background normalization for an uploaded photo. The
// image worker attaches the key to the housing once processed.
func (h *HousingHandler) PhotoAttach(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var req photoAttachRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "key is required"})
		return
	}

	if _, err := h.housings.GetHousing(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}

	payloadBytes, _ := json.Marshal(tasks.ImageTaskPayload{S3Key: req.Key, HousingID: id})
	task := asynq.NewTask(tasks.TypeImageProcess, payloadBytes, asynq.Queue("images"))
	if _, err := h.taskClient.EnqueueContext(c.Request.Context(), task); err != nil {
		log.Printf("ERROR enqueuing image task for housing %d: %v", id, err)
		respondError(c, err)
		return
	}
	c.JSON(http.StatusAccepted, gin.H{"message": "Photo queued for processing"})
}
