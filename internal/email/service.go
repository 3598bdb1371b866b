package email

import (
	"context"
	"encoding/json"
	"fmt"
	"net/smtp"
	"time"

	"github.com/redis/go-redis/v9"

	"tutorhub/internal/logger"
	"tutorhub/internal/metrics"
)

const (
	queueKey       = "emails"
	failedQueueKey = "emails:failed"
)

type EmailJob struct {
	To      string    `json:"to"`
	Name    string    `json:"name"`
	Subject string    `json:"subject"`
	Body    string    `json:"body"`
	Tries   int       `json:"tries"`
	Created time.Time `json:"created"`
}

type Service struct {
	redis    *redis.Client
	from     string
	fromName string
	smtpHost string
	smtpPort string
	smtpUser string
	smtpPass string
}

func New(fromEmail, fromName, smtpHost, smtpPort, smtpUser, smtpPass, redisAddr string) *Service {
	return &Service{
		redis: redis.NewClient(&redis.Options{
			Addr: redisAddr,
		}),
		from:     fromEmail,
		fromName: fromName,
		smtpHost: smtpHost,
		smtpPort: smtpPort,
		smtpUser: smtpUser,
		smtpPass: smtpPass,
	}
}

// NewWithClient is used by tests to inject a redis mock.
func NewWithClient(client *redis.Client, fromEmail, fromName string) *Service {
	return &Service{
		redis:    client,
		from:     fromEmail,
		fromName: fromName,
	}
}

func (s *Service) Send(ctx context.Context, to, name, subject, body string) error {
	job := EmailJob{
		To:      to,
		Name:    name,
		Subject: subject,
		Body:    body,
		Tries:   0,
		Created: time.Now(),
	}

	data, err := json.Marshal(job)
	if err != nil {
		logger.Errorf("Failed to marshal email job: %v", err)
		return err
	}

	if err := s.redis.LPush(ctx, queueKey, string(data)).Err(); err != nil {
		logger.Errorf("Failed to queue email to %s: %v", to, err)
		return err
	}

	logger.Infof("Email queued: %s to %s", subject, to)
	return nil
}

func (s *Service) Start(ctx context.Context) {
	logger.Info("Email service started")

	for {
		select {
		case <-ctx.Done():
			logger.Info("Email service stopped")
			return
		default:
			s.processNext(ctx)
		}
	}
}

func (s *Service) processNext(ctx context.Context) {
	result, err := s.redis.BRPop(ctx, 2*time.Second, queueKey).Result()
	if err != nil {
		return
	}

	var job EmailJob
	if err := json.Unmarshal([]byte(result[1]), &job); err != nil {
		logger.Errorf("Bad email data: %v", err)
		return
	}

	job.Tries++
	logger.Infof("Sending email to %s (attempt %d)", job.To, job.Tries)
	if err := s.sendNow(job); err != nil {
		logger.Errorf("Failed to send email to %s: %v", job.To, err)

		if job.Tries < 3 {
			time.Sleep(5 * time.Second)
			data, _ := json.Marshal(job)
			s.redis.LPush(context.Background(), queueKey, string(data))
			logger.Infof("Retrying email to %s (attempt %d)", job.To, job.Tries+1)
		} else {
			logger.Errorf("Email to %s failed after 3 attempts", job.To)
			metrics.RecordEmail("notification", "failed")
			s.saveFailed(job, err)
		}
		return
	}

	metrics.RecordEmail("notification", "sent")
	logger.Infof("Email sent successfully to %s", job.To)
}

func (s *Service) sendNow(job EmailJob) error {
	message := fmt.Sprintf("From: %s <%s>\r\n", s.fromName, s.from)
	message += fmt.Sprintf("To: %s\r\n", job.To)
	message += fmt.Sprintf("Subject: %s\r\n", job.Subject)
	message += "\r\n" + job.Body

	var auth smtp.Auth
	if s.smtpUser != "" && s.smtpPass != "" {
		auth = smtp.PlainAuth("", s.smtpUser, s.smtpPass, s.smtpHost)
	}

	addr := s.smtpHost + ":" + s.smtpPort
	return smtp.SendMail(addr, auth, s.from, []string{job.To}, []byte(message))
}

func (s *Service) saveFailed(job EmailJob, err error) {
	failed := map[string]interface{}{
		"job":   job,
		"error": err.Error(),
		"time":  time.Now(),
	}
	data, _ := json.Marshal(failed)
	s.redis.LPush(context.Background(), failedQueueKey, string(data))
	logger.Errorf("Email moved to failed queue: %s", job.To)
}

func (s *Service) QueueLength(ctx context.Context) int64 {
	length, _ := s.redis.LLen(ctx, queueKey).Result()
	return length
}

func (s *Service) Close() error {
	return s.redis.Close()
}

func (s *Service) SendSessionScheduled(ctx context.Context, to, name, subject string, when time.Time) error {
	emailSubject := "Class Booked - " + subject
	body := fmt.Sprintf(`Hi %s,

Your class is booked!

Subject: %s
Time: %s

See you in class!

- Tutorhub Team`, name, subject, when.Format("Jan 2, 2006 at 3:04 PM"))

	return s.Send(ctx, to, name, emailSubject, body)
}

func (s *Service) SendSessionCompleted(ctx context.Context, to, name, subject string, tokens int64) error {
	emailSubject := "Class Completed - " + subject
	body := fmt.Sprintf(`Hi %s,

Your class is complete.

Subject: %s
Tokens earned: %d

- Tutorhub Team`, name, subject, tokens)

	return s.Send(ctx, to, name, emailSubject, body)
}

func (s *Service) SendSessionCancelled(ctx context.Context, to, name, subject string) error {
	emailSubject := "Class Cancelled - " + subject
	body := fmt.Sprintf(`Hi %s,

Your class has been cancelled:

Subject: %s

Any tokens already charged have been refunded to your wallet.

- Tutorhub Team`, name, subject)

	return s.Send(ctx, to, name, emailSubject, body)
}

func (s *Service) SendWithdrawalResult(ctx context.Context, to, name string, amountUSD float64, status string) error {
	emailSubject := "Withdrawal " + status
	body := fmt.Sprintf(`Hi %s,

Your withdrawal request for $%.2f is %s.

- Tutorhub Team`, name, amountUSD, status)

	return s.Send(ctx, to, name, emailSubject, body)
}
