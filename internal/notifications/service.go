package notifications

import (
	"bytes"
	"fmt"
	"html/template"
	"sort"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/outlierlabs/digest-curator/internal/config"
	"github.com/outlierlabs/digest-curator/internal/models"
	"github.com/sirupsen/logrus"
	"gopkg.in/gomail.v2"
)

// Service handles sending notifications via various channels
type Service struct {
	config *config.Config
	client *resty.Client
	dialer mailDialer
}

type mailDialer interface {
	DialAndSend(m ...*gomail.Message) error
}

// Ensure Service implements NotificationInterface
var _ NotificationInterface = (*Service)(nil)

// TeamsMessage represents a Microsoft Teams message
type TeamsMessage struct {
	Type     string         `json:"@type"`
	Context  string         `json:"@context"`
	Title    string         `json:"title"`
	Text     string         `json:"text"`
	Sections []TeamsSection `json:"sections,omitempty"`
}

type TeamsSection struct {
	ActivityTitle    string      `json:"activityTitle,omitempty"`
	ActivitySubtitle string      `json:"activitySubtitle,omitempty"`
	ActivityText     string      `json:"activityText,omitempty"`
	Facts            []TeamsFact `json:"facts,omitempty"`
	Markdown         bool        `json:"markdown,omitempty"`
}

type TeamsFact struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// slot is one filled newsletter slot, in display order
type slot struct {
	Name  string
	Label string
	Item  *models.ContentItem
	Draft string
}

// NewService creates a new notification service
func NewService(cfg *config.Config) *Service {
	return &Service{
		config: cfg,
		client: resty.New().SetTimeout(30 * time.Second),
		dialer: gomail.NewDialer(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUsername, cfg.SMTPPassword),
	}
}

// SendDigest sends a digest via configured notification channels
func (s *Service) SendDigest(digest *models.Digest) error {
	var errors []string

	if s.config.TeamsWebhookURL != "" {
		if err := s.postToTeams(s.buildTeamsMessage(digest)); err != nil {
			logrus.Errorf("Failed to send Teams notification: %v", err)
			errors = append(errors, fmt.Sprintf("Teams: %v", err))
		} else {
			logrus.Info("Successfully sent digest to Teams")
		}
	}

	if s.config.NotificationEmail != "" {
		if err := s.sendEmail(digest); err != nil {
			logrus.Errorf("Failed to send email notification: %v", err)
			errors = append(errors, fmt.Sprintf("Email: %v", err))
		} else {
			logrus.Info("Successfully sent digest via email")
		}
	}

	if len(errors) > 0 {
		return fmt.Errorf("notification errors: %s", strings.Join(errors, "; "))
	}

	return nil
}

// SendAlert posts a short operational message to Teams, when configured
func (s *Service) SendAlert(title, message string) error {
	if s.config.TeamsWebhookURL == "" {
		logrus.Warnf("Alert not delivered (no Teams webhook): %s - %s", title, message)
		return nil
	}

	return s.postToTeams(&TeamsMessage{
		Type:    "MessageCard",
		Context: "https://schema.org/extensions",
		Title:   title,
		Text:    message,
	})
}

func (s *Service) postToTeams(message *TeamsMessage) error {
	resp, err := s.client.R().
		SetHeader("Content-Type", "application/json").
		SetBody(message).
		Post(s.config.TeamsWebhookURL)

	if err != nil {
		return fmt.Errorf("failed to send Teams message: %w", err)
	}

	if resp.StatusCode() != 200 {
		return fmt.Errorf("Teams webhook returned status %d: %s", resp.StatusCode(), string(resp.Body()))
	}

	return nil
}

func (s *Service) buildTeamsMessage(digest *models.Digest) *TeamsMessage {
	message := &TeamsMessage{
		Type:    "MessageCard",
		Context: "https://schema.org/extensions",
		Title:   digestTitle(digest),
		Text: fmt.Sprintf("Selected %d of %d candidate items from %s",
			len(digest.Selection.Slots()), digest.PoolSize, sourcesLabel(digest.Selection.SourcesUsed)),
	}

	facts := []TeamsFact{
		{Name: "Candidate Items", Value: fmt.Sprintf("%d", digest.PoolSize)},
		{Name: "Generated", Value: digest.GeneratedAt.UTC().Format("2006-01-02 15:04:05 UTC")},
	}
	for _, source := range sortedKeys(digest.Summary) {
		facts = append(facts, TeamsFact{
			Name:  fmt.Sprintf("%s Items", source),
			Value: fmt.Sprintf("%d", digest.Summary[source]),
		})
	}
	message.Sections = append(message.Sections, TeamsSection{
		ActivityTitle: "Summary",
		Facts:         facts,
		Markdown:      true,
	})

	for _, sl := range slots(digest) {
		if sl.Item == nil {
			message.Sections = append(message.Sections, TeamsSection{
				ActivityTitle: sl.Label,
				ActivityText:  "_No content available for this slot_",
				Markdown:      true,
			})
			continue
		}

		text := fmt.Sprintf("**[%s](%s)**", sl.Item.Title, sl.Item.URL)
		if sl.Draft != "" {
			text += "\n\n" + sl.Draft
		}
		if sl.Item.Virality != nil {
			text += "\n\n_" + sl.Item.Virality.ReplicationNotes + "_"
		}
		if sl.Item.DifferentAngleNeeded {
			text += "\n\n**Needs a different angle**"
		}

		message.Sections = append(message.Sections, TeamsSection{
			ActivityTitle:    sl.Label,
			ActivitySubtitle: fmt.Sprintf("%s | outlier score %.2f", sl.Item.Source, sl.Item.OutlierScore),
			ActivityText:     text,
			Markdown:         true,
		})
	}

	return message
}

func (s *Service) sendEmail(digest *models.Digest) error {
	subject := fmt.Sprintf("%s (%d candidates)", digestTitle(digest), digest.PoolSize)

	htmlBody, err := s.buildEmailHTML(digest)
	if err != nil {
		return fmt.Errorf("failed to build email HTML: %w", err)
	}

	m := gomail.NewMessage()
	m.SetHeader("From", s.config.SMTPUsername)
	m.SetHeader("To", s.config.NotificationEmail)
	m.SetHeader("Subject", subject)
	m.SetBody("text/plain", s.buildEmailText(digest))
	m.AddAlternative("text/html", htmlBody)

	if err := s.dialer.DialAndSend(m); err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}

	return nil
}

var emailTemplate = template.Must(template.New("email").Funcs(template.FuncMap{
	"truncate": func(length int, s string) string {
		runes := []rune(s)
		if len(runes) <= length {
			return s
		}
		return string(runes[:length]) + "..."
	},
}).Parse(`
<!DOCTYPE html>
<html>
<head>
    <meta charset="UTF-8">
    <title>{{.Title}}</title>
    <style>
        body { font-family: Arial, sans-serif; margin: 20px; }
        .header { background-color: #1f2937; color: white; padding: 20px; border-radius: 5px; }
        .summary { background-color: #f5f5f5; padding: 15px; margin: 20px 0; border-radius: 5px; }
        .slot { border-left: 4px solid #2563eb; padding: 10px; margin: 10px 0; background-color: #fafafa; }
        .slot-title { font-weight: bold; margin-bottom: 5px; }
        .slot-meta { color: #666; font-size: 0.9em; }
        .empty { border-left-color: #9ca3af; }
        .reframe { color: #b45309; font-weight: bold; }
    </style>
</head>
<body>
    <div class="header">
        <h1>{{.Title}}</h1>
        <p>Generated on {{.Digest.GeneratedAt.Format "January 2, 2006 at 3:04 PM UTC"}}</p>
    </div>

    <div class="summary">
        <h2>Summary</h2>
        <p><strong>Candidate Items:</strong> {{.Digest.PoolSize}}</p>
        <p><strong>Sources Used:</strong> {{.Sources}}</p>
        {{range $source, $count := .Digest.Summary}}
            <p><strong>{{$source}}:</strong> {{$count}}</p>
        {{end}}
    </div>

    {{range .Slots}}
        {{if .Item}}
        <div class="slot">
            <h2>{{.Label}}</h2>
            <div class="slot-title">
                <a href="{{.Item.URL}}" target="_blank">{{.Item.Title}}</a>
            </div>
            <div class="slot-meta">
                {{.Item.Source}}{{if .Item.Author}} | {{.Item.Author}}{{end}} | outlier score {{printf "%.2f" .Item.OutlierScore}}
            </div>
            {{if .Draft}}<p>{{.Draft}}</p>{{else if .Item.Summary}}<p>{{truncate 300 .Item.Summary}}</p>{{end}}
            {{if .Item.Virality}}<p><em>{{.Item.Virality.ReplicationNotes}}</em></p>{{end}}
            {{if .Item.DifferentAngleNeeded}}<p class="reframe">Needs a different angle</p>{{end}}
        </div>
        {{else}}
        <div class="slot empty">
            <h2>{{.Label}}</h2>
            <p>No content available for this slot.</p>
        </div>
        {{end}}
    {{end}}

    <hr>
    <p><small>This digest was generated automatically by the Digest Curator.</small></p>
</body>
</html>
`))

func (s *Service) buildEmailHTML(digest *models.Digest) (string, error) {
	data := struct {
		Title   string
		Sources string
		Digest  *models.Digest
		Slots   []slot
	}{
		Title:   digestTitle(digest),
		Sources: sourcesLabel(digest.Selection.SourcesUsed),
		Digest:  digest,
		Slots:   slots(digest),
	}

	var buf bytes.Buffer
	if err := emailTemplate.Execute(&buf, data); err != nil {
		return "", err
	}

	return buf.String(), nil
}

func (s *Service) buildEmailText(digest *models.Digest) string {
	var text strings.Builder

	text.WriteString(digestTitle(digest) + "\n")
	text.WriteString(fmt.Sprintf("Generated: %s\n\n", digest.GeneratedAt.UTC().Format("2006-01-02 15:04:05 UTC")))

	text.WriteString("SUMMARY\n")
	text.WriteString("=======\n")
	text.WriteString(fmt.Sprintf("Candidate Items: %d\n", digest.PoolSize))
	text.WriteString(fmt.Sprintf("Sources Used: %s\n", sourcesLabel(digest.Selection.SourcesUsed)))
	for _, source := range sortedKeys(digest.Summary) {
		text.WriteString(fmt.Sprintf("%s: %d\n", source, digest.Summary[source]))
	}

	for _, sl := range slots(digest) {
		text.WriteString(fmt.Sprintf("\n%s\n%s\n", strings.ToUpper(sl.Label), strings.Repeat("=", len(sl.Label))))
		if sl.Item == nil {
			text.WriteString("No content available for this slot.\n")
			continue
		}

		text.WriteString(fmt.Sprintf("%s\n", sl.Item.Title))
		text.WriteString(fmt.Sprintf("   Source: %s | Score: %.2f | URL: %s\n", sl.Item.Source, sl.Item.OutlierScore, sl.Item.URL))
		if sl.Draft != "" {
			text.WriteString(fmt.Sprintf("   %s\n", sl.Draft))
		}
		if sl.Item.Virality != nil {
			text.WriteString(fmt.Sprintf("   Why it spread: %s\n", sl.Item.Virality.ReplicationNotes))
		}
		if sl.Item.DifferentAngleNeeded {
			text.WriteString("   Needs a different angle\n")
		}
	}

	text.WriteString("\n---\nThis digest was generated automatically by the Digest Curator.\n")

	return text.String()
}

func digestTitle(digest *models.Digest) string {
	if digest.IssueNumber > 0 {
		return fmt.Sprintf("Outlier Digest - Issue #%d", digest.IssueNumber)
	}
	return "Outlier Digest"
}

func slots(digest *models.Digest) []slot {
	return []slot{
		{Name: "quote", Label: "Hook", Item: digest.Selection.Quote, Draft: digest.Sections["quote"]},
		{Name: "tactical", Label: "Tactical", Item: digest.Selection.Tactical, Draft: digest.Sections["tactical"]},
		{Name: "narrative", Label: "Narrative", Item: digest.Selection.Narrative, Draft: digest.Sections["narrative"]},
	}
}

func sourcesLabel(sources []string) string {
	if len(sources) == 0 {
		return "no sources"
	}
	return strings.Join(sources, ", ")
}

func sortedKeys(m map[string]int) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
