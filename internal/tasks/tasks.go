package tasks

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"image"
	_ "image/gif" // register decoder
	"image/jpeg"
	_ "image/png" // register decoder
	"log"
	"strings"
	"text/template"
	"time"

	"github.com/hibiken/asynq"
	"github.com/nfnt/resize"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/bmcgrane302/properview/internal/auth"
	"github.com/bmcgrane302/properview/internal/config"
	"github.com/bmcgrane302/properview/internal/email"
	"github.com/bmcgrane302/properview/internal/models"
	"github.com/bmcgrane302/properview/internal/services"
	"github.com/bmcgrane302/properview/internal/storage"
)

// Task types.
const (
	TypeInquiryNotify = "inquiry:notify"
	TypeImageProcess  = "image:process"
)

// Queues.
const (
	QueueDefault = "default"
	QueueImages  = "images"
)

// EmailKindInquiry tags new-inquiry notifications.
const EmailKindInquiry = "inquiry"

// IAsynqClient is the part of *asynq.Client used to enqueue work.
type IAsynqClient interface {
	EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
}

// --- Task Client (Enqueuing tasks) ---

func redisClientOpt(rdb *redis.Client) asynq.RedisClientOpt {
	opts := rdb.Options()
	return asynq.RedisClientOpt{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	}
}

// NewClient returns an asynq client sharing the connection settings of rdb.
func NewClient(rdb *redis.Client) *asynq.Client {
	return asynq.NewClient(redisClientOpt(rdb))
}

// InquiryNotifyPayload identifies the inquiry an agent should be told about.
type InquiryNotifyPayload struct {
	InquiryID  string    `json:"inquiry_id"`
	PropertyID string    `json:"property_id"`
	Name       string    `json:"name"`
	Email      string    `json:"email"`
	Phone      string    `json:"phone,omitempty"`
	Message    string    `json:"message"`
	CreatedAt  time.Time `json:"created_at"`
}

// ImageTaskPayload points at an uploaded photo awaiting normalisation.
type ImageTaskPayload struct {
	S3Key      string `json:"s3_key"`
	PropertyID string `json:"property_id"`
}

// NewInquiryNotifyTask builds an inquiry:notify task.
func NewInquiryNotifyTask(inquiry *models.Inquiry) (*asynq.Task, error) {
	payload := InquiryNotifyPayload{
		InquiryID:  inquiry.ID.Hex(),
		PropertyID: inquiry.PropertyID.Hex(),
		Name:       inquiry.Name,
		Email:      inquiry.Email,
		Message:    inquiry.Message,
		CreatedAt:  inquiry.CreatedAt,
	}
	if inquiry.Phone != nil {
		payload.Phone = *inquiry.Phone
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal inquiry notify payload: %w", err)
	}
	return asynq.NewTask(TypeInquiryNotify, data, asynq.Queue(QueueDefault), asynq.MaxRetry(5)), nil
}

// NewImageProcessTask builds an image:process task.
func NewImageProcessTask(propertyID, s3Key string) (*asynq.Task, error) {
	data, err := json.Marshal(ImageTaskPayload{S3Key: s3Key, PropertyID: propertyID})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal image task payload: %w", err)
	}
	return asynq.NewTask(TypeImageProcess, data, asynq.Queue(QueueImages), asynq.MaxRetry(3)), nil
}

// asynqNotifier queues an inquiry:notify task for every new inquiry.
type asynqNotifier struct {
	client IAsynqClient
}

// NewInquiryNotifier returns a services.InquiryNotifier backed by the task queue.
func NewInquiryNotifier(client IAsynqClient) services.InquiryNotifier {
	return &asynqNotifier{client: client}
}

func (n *asynqNotifier) NotifyNewInquiry(ctx context.Context, inquiry *models.Inquiry, property *models.Property) error {
	task, err := NewInquiryNotifyTask(inquiry)
	if err != nil {
		return err
	}
	info, err := n.client.EnqueueContext(ctx, task)
	if err != nil {
		return fmt.Errorf("failed to enqueue inquiry notification for property %s: %w", property.ID.Hex(), err)
	}
	log.Printf("Enqueued inquiry notification task %s for agent %s", info.ID, property.AgentID)
	return nil
}

// --- Task Server (Processing tasks) ---

// TaskProcessor holds the dependencies task handlers need.
type TaskProcessor struct {
	cfg         *config.Config
	emailSender email.Sender
	storage     storage.IS3Storage
	properties  services.IPropertyService
	credentials auth.ICredentialStore
}

func NewTaskProcessor(
	cfg *config.Config,
	emailSender email.Sender,
	storageService storage.IS3Storage,
	properties services.IPropertyService,
	credentials auth.ICredentialStore,
) *TaskProcessor {
	return &TaskProcessor{
		cfg:         cfg,
		emailSender: emailSender,
		storage:     storageService,
		properties:  properties,
		credentials: credentials,
	}
}

// SetupServer builds an asynq server and mux for the requested worker roles.
// It returns nil, nil when neither role is requested. The caller runs the server.
func SetupServer(rdb *redis.Client, processor *TaskProcessor, isImageWorker bool, isBgWorker bool) (*asynq.Server, *asynq.ServeMux) {
	if !isBgWorker && !isImageWorker {
		fmt.Println("Running in API mode, no task server started.")
		return nil, nil
	}

	queues := map[string]int{}
	mux := asynq.NewServeMux()

	if isBgWorker {
		queues[QueueDefault] = 3
		mux.HandleFunc(TypeInquiryNotify, processor.HandleInquiryNotifyTask)
		fmt.Println("Registered background task handlers.")
	}
	if isImageWorker {
		queues[QueueImages] = 5
		mux.HandleFunc(TypeImageProcess, processor.HandleImageProcessTask)
		fmt.Println("Registered image processing task handlers.")
	}

	srv := asynq.NewServer(
		redisClientOpt(rdb),
		asynq.Config{
			Queues: queues,
			ErrorHandler: asynq.ErrorHandlerFunc(func(ctx context.Context, task *asynq.Task, err error) {
				fmt.Printf("[Asynq Error] Task Type: %s, Payload: %s, Error: %v\n", task.Type(), string(task.Payload()), err)
			}),
		},
	)
	return srv, mux
}

// --- Task Handlers ---

var inquiryEmailTemplate = template.Must(template.New("inquiry").Parse(
	`Hello {{.AgentName}},

You have a new inquiry about "{{.Property.Title}}" ({{.Property.Address}}).

From:    {{.Inquiry.Name}} <{{.Inquiry.Email}}>
{{- if .Inquiry.Phone}}
Phone:   {{.Inquiry.Phone}}
{{- end}}
Sent:    {{.Inquiry.CreatedAt.Format "2006-01-02 15:04 MST"}}

{{.Inquiry.Message}}

--
{{.AppName}}
`))

type inquiryEmailData struct {
	AppName   string
	AgentName string
	Property  *models.Property
	Inquiry   InquiryNotifyPayload
}

// RenderInquiryEmail builds the notification message sent to agent.
func RenderInquiryEmail(cfg *config.Config, agent *models.Agent, property *models.Property, payload InquiryNotifyPayload) (email.Message, error) {
	var body bytes.Buffer
	err := inquiryEmailTemplate.Execute(&body, inquiryEmailData{
		AppName:   cfg.AppName,
		AgentName: agent.Name,
		Property:  property,
		Inquiry:   payload,
	})
	if err != nil {
		return email.Message{}, fmt.Errorf("failed to render inquiry email: %w", err)
	}

	from := cfg.SmtpFromAddress
	if from == "" {
		from = "noreply@properview.example.com"
	}
	return email.Message{
		From:    from,
		To:      []string{agent.Email},
		Subject: fmt.Sprintf("New inquiry: %s", property.Title),
		Kind:    EmailKindInquiry,
		Body:    body.String(),
	}, nil
}

// HandleInquiryNotifyTask emails the owning agent about a new inquiry.
func (p *TaskProcessor) HandleInquiryNotifyTask(ctx context.Context, t *asynq.Task) error {
	var payload InquiryNotifyPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return fmt.Errorf("failed to unmarshal inquiry notify payload: %v: %w", err, asynq.SkipRetry)
	}

	property, err := p.properties.FindPropertyByID(ctx, payload.PropertyID)
	if err != nil {
		if errors.Is(err, services.ErrNotFound) || errors.Is(err, services.ErrInvalidID) {
			log.Printf("Property %s for inquiry %s no longer exists, dropping notification", payload.PropertyID, payload.InquiryID)
			return fmt.Errorf("property %s: %v: %w", payload.PropertyID, err, asynq.SkipRetry)
		}
		return fmt.Errorf("failed to load property %s: %w", payload.PropertyID, err)
	}

	agent, err := p.credentials.FindAgentByID(ctx, property.AgentID)
	if err != nil {
		if errors.Is(err, auth.ErrAgentNotFound) {
			log.Printf("No agent %s for property %s, dropping notification", property.AgentID, payload.PropertyID)
			return fmt.Errorf("agent %s: %v: %w", property.AgentID, err, asynq.SkipRetry)
		}
		return fmt.Errorf("failed to load agent %s: %w", property.AgentID, err)
	}

	msg, err := RenderInquiryEmail(p.cfg, agent, property, payload)
	if err != nil {
		return fmt.Errorf("%v: %w", err, asynq.SkipRetry)
	}

	if err := p.emailSender.Send(ctx, msg.To, msg.Subject, msg.Bytes()); err != nil {
		log.Printf("Inquiry notification to %s failed: %v", agent.Email, err)
		return err
	}

	log.Printf("Inquiry notification sent: Inquiry=%s, Agent=%s", payload.InquiryID, agent.ID)
	return nil
}

// HandleImageProcessTask bounds an uploaded photo's dimensions and attaches it to its property.
func (p *TaskProcessor) HandleImageProcessTask(ctx context.Context, t *asynq.Task) error {
	var payload ImageTaskPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return fmt.Errorf("failed to unmarshal image task payload: %v: %w", err, asynq.SkipRetry)
	}

	propertyID, err := primitive.ObjectIDFromHex(payload.PropertyID)
	if err != nil {
		log.Printf("Invalid PropertyID in image task payload: %s", payload.PropertyID)
		return fmt.Errorf("invalid property ID in payload: %w", asynq.SkipRetry)
	}
	if !storage.IsUploadKeyFor(payload.S3Key, payload.PropertyID) {
		return fmt.Errorf("key %s does not belong to property %s: %w", payload.S3Key, payload.PropertyID, asynq.SkipRetry)
	}

	log.Printf("Processing image task: S3Key=%s, PropertyID=%s", payload.S3Key, payload.PropertyID)

	imgData, contentType, err := p.storage.GetObject(ctx, payload.S3Key)
	if err != nil {
		if errors.Is(err, storage.ErrObjectNotFound) {
			log.Printf("S3 object %s not found, likely upload failed or key incorrect.", payload.S3Key)
			return fmt.Errorf("s3 object not found: %w", asynq.SkipRetry)
		}
		return fmt.Errorf("failed to download image from S3: %w", err)
	}

	maxSizeBytes := int64(p.cfg.ImageMaxSizeMB) * 1024 * 1024
	if maxSizeBytes > 0 && int64(len(imgData)) > maxSizeBytes {
		log.Printf("Image %s exceeds max size (%d > %d bytes). Skipping.", payload.S3Key, len(imgData), maxSizeBytes)
		return fmt.Errorf("image exceeds max size: %w", asynq.SkipRetry)
	}

	img, format, err := image.Decode(bytes.NewReader(imgData))
	if err != nil {
		log.Printf("Error decoding image for key %s: %v", payload.S3Key, err)
		return fmt.Errorf("unsupported image format or corrupt image: %w", asynq.SkipRetry)
	}
	log.Printf("Decoded image %s, format: %s, size: %dx%d", payload.S3Key, format, img.Bounds().Dx(), img.Bounds().Dy())

	maxDim := uint(p.cfg.ImageMaxDimension)
	if maxDim > 0 && (uint(img.Bounds().Dx()) > maxDim || uint(img.Bounds().Dy()) > maxDim) {
		resized := resize.Thumbnail(maxDim, maxDim, img, resize.Lanczos3)
		var buf bytes.Buffer
		if err := jpeg.Encode(&buf, resized, &jpeg.Options{Quality: 85}); err != nil {
			return fmt.Errorf("failed to re-encode resized image: %w", err)
		}
		if maxSizeBytes > 0 && int64(buf.Len()) > maxSizeBytes {
			return fmt.Errorf("resized image still exceeds max size: %w", asynq.SkipRetry)
		}
		log.Printf("Resized image %s to %dx%d", payload.S3Key, resized.Bounds().Dx(), resized.Bounds().Dy())

		if err := p.storage.PutObject(ctx, payload.S3Key, buf.Bytes(), "image/jpeg"); err != nil {
			return fmt.Errorf("failed to upload processed image: %w", err)
		}
	} else if !strings.HasPrefix(contentType, "image/") {
		if err := p.storage.PutObject(ctx, payload.S3Key, imgData, "image/"+format); err != nil {
			return fmt.Errorf("failed to fix image content type: %w", err)
		}
	}

	if err := p.properties.AddImageToProperty(ctx, propertyID, payload.S3Key); err != nil {
		if errors.Is(err, services.ErrNotFound) {
			return fmt.Errorf("property %s deleted before image attached: %w", payload.PropertyID, asynq.SkipRetry)
		}
		return fmt.Errorf("failed to attach image to property: %w", err)
	}

	log.Printf("Image task processed successfully: Key=%s, PropertyID=%s", payload.S3Key, payload.PropertyID)
	return nil
}
