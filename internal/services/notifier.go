package services

import (
  "bytes"
  "context"
  "encoding/json"
  "fmt"
  "net/http"
  "os"
  "strings"
  "time"

  "github.com/google/uuid"

  "github.com/yungbote/studyforge-backend/internal/logger"
)

// Notifier reports pipeline outcomes to an ops channel. All methods are
// fire-and-forget: they never block the pipeline and never return errors.
type Notifier interface {
  GenerationSucceeded(kind string, artifactID uuid.UUID, itemCount int)
  GenerationUnitSkipped(kind string, unit int, title string, err error)
  GenerationFailed(kind string, detail string, err error)
  PersistenceFailed(artifactID uuid.UUID, err error)
}

type discordNotifier struct {
  log        *logger.Logger
  webhookURL string
  httpClient *http.Client
}

// NewDiscordNotifier posts to a Discord webhook. With DISCORD_WEBHOOK_URL
// unset it degrades to a no-op.
func NewDiscordNotifier(log *logger.Logger) Notifier {
  url := strings.TrimSpace(os.Getenv("DISCORD_WEBHOOK_URL"))
  n := &discordNotifier{
    log:        log.With("service", "DiscordNotifier"),
    webhookURL: url,
    httpClient: &http.Client{Timeout: 5 * time.Second},
  }
  if url == "" {
    n.log.Info("DISCORD_WEBHOOK_URL not set, notifications disabled")
  }
  return n
}

func (n *discordNotifier) GenerationSucceeded(kind string, artifactID uuid.UUID, itemCount int) {
  n.post(fmt.Sprintf("✅ %s generated: artifact=%s items=%d", kind, artifactID.String(), itemCount))
}

func (n *discordNotifier) GenerationUnitSkipped(kind string, unit int, title string, err error) {
  n.post(fmt.Sprintf("⚠️ %s unit %d (%s) skipped: %v", kind, unit, title, err))
}

func (n *discordNotifier) GenerationFailed(kind string, detail string, err error) {
  n.post(fmt.Sprintf("❌ %s generation failed (%s): %v", kind, detail, err))
}

func (n *discordNotifier) PersistenceFailed(artifactID uuid.UUID, err error) {
  n.post(fmt.Sprintf("❌ progress persistence failed: artifact=%s err=%v", artifactID.String(), err))
}

func (n *discordNotifier) post(content string) {
  if n == nil || n.webhookURL == "" {
    return
  }

  go func() {
    ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
    defer cancel()

    body, err := json.Marshal(map[string]string{"content": content})
    if err != nil {
      return
    }
    req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.webhookURL, bytes.NewReader(body))
    if err != nil {
      return
    }
    req.Header.Set("Content-Type", "application/json")

    resp, err := n.httpClient.Do(req)
    if err != nil {
      n.log.Warn("Discord notification failed", "error", err)
      return
    }
    _ = resp.Body.Close()
    if resp.StatusCode >= 300 {
      n.log.Warn("Discord notification rejected", "status", resp.StatusCode)
    }
  }()
}
