package tasks

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"image"
	"image/jpeg"
	_ "image/png"
	"io"
	"log"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/hibiken/asynq"
	"github.com/nfnt/resize"
	"github.com/redis/go-redis/v9"

	"github.com/wisetreee/safe-haven/internal/config"
	"github.com/wisetreee/safe-haven/internal/email"
	"github.com/wisetreee/safe-haven/internal/models"
	"github.com/wisetreee/safe-haven/internal/services"
)

// TaskType defines the type of a background task.
const (
	TypeBookingStatusEmail = "email:booking_status"
	TypeImageProcess       = "image:process"
)

// --- Task Client (Enqueuing tasks) ---

func NewClient(rdb *redis.Client) *asynq.Client {
	clientOpt := asynq.RedisClientOpt{
		Addr:     rdb.Options().Addr,
		Password: rdb.Options().Password,
		DB:       rdb.Options().DB,
	}
	return asynq.NewClient(clientOpt)
}

// --- Task Server (Processing tasks) ---

// TaskProcessor handles the processing of tasks. It holds the dependencies
// the task handlers need.
type TaskProcessor struct {
	cfg            *config.Config
	emailSender    email.Sender
	housingService services.IHousingService
	s3Client       *s3.Client
}

func NewTaskProcessor(
	cfg *config.Config,
	emailSender email.Sender,
	housingService services.IHousingService,
	s3Client *s3.Client,
) *TaskProcessor {
	return &TaskProcessor{
		cfg:            cfg,
		emailSender:    emailSender,
		housingService: housingService,
		s3Client:       s3Client,
	}
}

// SetupServer configures an Asynq server and its handler mux for the given
// worker mode. The caller runs the server; nil is returned in pure API mode.
func SetupServer(rdb *redis.Client, processor *TaskProcessor, isImageWorker bool, isBgWorker bool) (*asynq.Server, *asynq.ServeMux) {
	serverOpt := asynq.RedisClientOpt{
		Addr:     rdb.Options().Addr,
		Password: rdb.Options().Password,
		DB:       rdb.Options().DB,
	}

	srv := asynq.NewServer(
		serverOpt,
		asynq.Config{
			Queues: map[string]int{
				"critical": 6,
				"default":  3,
				"low":      1,
				"images":   5,
			},
			ErrorHandler: asynq.ErrorHandlerFunc(func(ctx context.Context, task *asynq.Task, err error) {
				log.Printf("[Asynq Error] Task Type: %s, Payload: %s, Error: %v", task.Type(), string(task.Payload()), err)
			}),
		},
	)

	mux := asynq.NewServeMux()

	if isBgWorker {
		mux.HandleFunc(TypeBookingStatusEmail, processor.HandleBookingStatusEmailTask)
		log.Println("Registered background task handlers.")
	}

	if isImageWorker {
		mux.HandleFunc(TypeImageProcess, processor.HandleImageProcessTask)
		log.Println("Registered image processing task handlers.")
	}

	if !isBgWorker && !isImageWorker {
		log.Println("Running in API mode, no task server started.")
		return nil, nil
	}

	return srv, mux
}

// --- Task Handlers ---

// BookingStatusEmailPayload carries a booking status notification.
type BookingStatusEmailPayload struct {
	To            string `json:"to"`
	GuestName     string `json:"guest_name"`
	BookingNumber string `json:"booking_number"`
	HousingName   string `json:"housing_name"`
	Status        string `json:"status"`
	Reason        string `json:"reason,omitempty"`
}

// HandleBookingStatusEmailTask delivers a booking status notification email.
func (p *TaskProcessor) HandleBookingStatusEmailTask(ctx context.Context, t *asynq.Task) error {
	var payload BookingStatusEmailPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return fmt.Errorf("failed to unmarshal email task payload: %v: %w", err, asynq.SkipRetry)
	}
	if payload.To == "" {
		return fmt.Errorf("email task has no recipient: %w", asynq.SkipRetry)
	}

	subject, body := renderBookingStatusEmail(p.cfg.AppName, payload)

	fromAddress := p.cfg.SmtpFromAddress
	if fromAddress == "" {
		fromAddress = "noreply@example.com"
		log.Printf("Warning: SmtpFromAddress not configured, using fallback %s for email to %s", fromAddress, payload.To)
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("To: %s\r\n", payload.To))
	sb.WriteString(fmt.Sprintf("From: %s\r\n", fromAddress))
	sb.WriteString(fmt.Sprintf("Subject: %s\r\n", subject))
	sb.WriteString("Date: " + time.Now().Format(time.RFC1123Z) + "\r\n")
	sb.WriteString("MIME-Version: 1.0\r\n")
	sb.WriteString("Content-Type: text/plain; charset=\"UTF-8\"\r\n")
	sb.WriteString("\r\n")
	sb.WriteString(body)
	sb.WriteString("\r\n")

	if err := p.emailSender.Send(ctx, []string{payload.To}, subject, []byte(sb.String())); err != nil {
		log.Printf("Email sending failed (will retry): %v", err)
		return err
	}

	log.Printf("Email task processed successfully: To=%s, Booking=%s, Status=%s", payload.To, payload.BookingNumber, payload.Status)
	return nil
}

func renderBookingStatusEmail(appName string, payload BookingStatusEmailPayload) (subject, body string) {
	greeting := "Hello"
	if payload.GuestName != "" {
		greeting = "Hello " + payload.GuestName
	}

	switch models.BookingStatus(payload.Status) {
	case models.BookingConfirmed:
		subject = fmt.Sprintf("Your booking %s is confirmed", payload.BookingNumber)
		body = fmt.Sprintf("%s,\r\n\r\nYour booking %s at %s has been confirmed. Our staff will be in touch with arrival details.\r\n\r\n%s",
			greeting, payload.BookingNumber, payload.HousingName, appName)
	case models.BookingCancelled:
		subject = fmt.Sprintf("Your booking %s was cancelled", payload.BookingNumber)
		reason := ""
		if payload.Reason != "" {
			reason = fmt.Sprintf(" Reason: %s.", payload.Reason)
		}
		body = fmt.Sprintf("%s,\r\n\r\nYour booking %s at %s has been cancelled.%s\r\n\r\n%s",
			greeting, payload.BookingNumber, payload.HousingName, reason, appName)
	default:
		subject = fmt.Sprintf("Update on your booking %s", payload.BookingNumber)
		body = fmt.Sprintf("%s,\r\n\r\nThe status of your booking %s at %s is now: %s.\r\n\r\n%s",
			greeting, payload.BookingNumber, payload.HousingName, payload.Status, appName)
	}
	return subject, body
}

// ImageTaskPayload identifies an uploaded housing photo to normalize.
type ImageTaskPayload struct {
	S3Key     string `json:"s3_key"`
	HousingID uint   `json:"housing_id"`
}

// HandleImageProcessTask downloads an uploaded housing photo, enforces the
// size cap, resizes it to the configured max dimension, re-uploads it and
// attaches the key to the housing record.
func (p *TaskProcessor) HandleImageProcessTask(ctx context.Context, t *asynq.Task) error {
	var payload ImageTaskPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return fmt.Errorf("failed to unmarshal image task payload: %v: %w", err, asynq.SkipRetry)
	}
	if payload.HousingID == 0 {
		return fmt.Errorf("invalid housing ID in payload: %w", asynq.SkipRetry)
	}

	log.Printf("Processing image task: S3Key=%s, HousingID=%d", payload.S3Key, payload.HousingID)

	getObjectOutput, err := p.s3Client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(p.cfg.AwsS3Bucket),
		Key:    aws.String(payload.S3Key),
	})
	if err != nil {
		var nsk *types.NoSuchKey
		if errors.As(err, &nsk) {
			log.Printf("S3 object %s not found, likely upload failed or key incorrect.", payload.S3Key)
			return fmt.Errorf("s3 object not found: %w", asynq.SkipRetry)
		}
		log.Printf("Error getting object %s from S3: %v", payload.S3Key, err)
		return fmt.Errorf("failed to download image from S3: %w", err)
	}
	defer getObjectOutput.Body.Close()

	imgData, err := io.ReadAll(getObjectOutput.Body)
	if err != nil {
		return fmt.Errorf("failed to read image data: %w", err)
	}

	maxSizeBytes := int64(p.cfg.ImageMaxSizeMB) * 1024 * 1024
	if int64(len(imgData)) > maxSizeBytes {
		log.Printf("Image %s exceeds max size (%d > %d bytes). Skipping.", payload.S3Key, len(imgData), maxSizeBytes)
		return fmt.Errorf("image exceeds max size: %w", asynq.SkipRetry)
	}

	img, format, err := image.Decode(bytes.NewReader(imgData))
	if err != nil {
		log.Printf("Error decoding image for key %s: %v", payload.S3Key, err)
		return fmt.Errorf("unsupported image format or corrupt image: %w", asynq.SkipRetry)
	}
	log.Printf("Decoded image %s, format: %s, size: %dx%d", payload.S3Key, format, img.Bounds().Dx(), img.Bounds().Dy())

	maxWidth := uint(p.cfg.ImageMaxDimension)
	maxHeight := uint(p.cfg.ImageMaxDimension)
	needsResize := uint(img.Bounds().Dx()) > maxWidth || uint(img.Bounds().Dy()) > maxHeight

	processedImageData := imgData
	contentType := aws.ToString(getObjectOutput.ContentType)

	if needsResize {
		resizedImg := resize.Thumbnail(maxWidth, maxHeight, img, resize.Lanczos3)
		var buf bytes.Buffer
		if err := jpeg.Encode(&buf, resizedImg, &jpeg.Options{Quality: 85}); err != nil {
			return fmt.Errorf("failed to re-encode resized image: %w", err)
		}
		processedImageData = buf.Bytes()
		contentType = "image/jpeg"
		log.Printf("Resized image %s to %dx%d", payload.S3Key, resizedImg.Bounds().Dx(), resizedImg.Bounds().Dy())

		if int64(len(processedImageData)) > maxSizeBytes {
			return fmt.Errorf("resized image still exceeds max size: %w", asynq.SkipRetry)
		}
	}

	_, err = p.s3Client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(p.cfg.AwsS3Bucket),
		Key:         aws.String(payload.S3Key),
		Body:        bytes.NewReader(processedImageData),
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return fmt.Errorf("failed to upload processed image: %w", err)
	}

	if err := p.housingService.AddImage(ctx, payload.HousingID, payload.S3Key); err != nil {
		log.Printf("Error adding image key %s to housing %d: %v", payload.S3Key, payload.HousingID, err)
		return fmt.Errorf("failed to update housing with processed image: %w", err)
	}

	log.Printf("Image task processed successfully: Key=%s, HousingID=%d", payload.S3Key, payload.HousingID)
	return nil
}
