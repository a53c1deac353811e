package notify

import (
	"fmt"

	goslack "github.com/slack-go/slack"
)

const maxBlockTextLength = 2900

var completedStatusEmoji = map[string]string{
	"committed": ":white_check_mark:",
	"escalated": ":warning:",
	"exhausted": ":no_entry_sign:",
	"failed":    ":x:",
	"cancelled": ":no_entry_sign:",
}

var completedStatusLabel = map[string]string{
	"committed": "Change Committed",
	"escalated": "Escalated for Review",
	"exhausted": "Retry Budget Exhausted",
	"failed":    "Session Failed",
	"cancelled": "Session Cancelled",
}

func sessionURL(sessionID, dashboardURL string) string {
	return fmt.Sprintf("%s/sessions/%s", dashboardURL, sessionID)
}

// buildStartedBlocks creates Block Kit blocks for a session-start notification.
func buildStartedBlocks(sessionID, dashboardURL string) []goslack.Block {
	url := sessionURL(sessionID, dashboardURL)
	text := fmt.Sprintf(":arrows_counterclockwise: *Processing started* — this may take a few minutes.\n<%s|View in Dashboard>", url)

	return []goslack.Block{
		goslack.NewSectionBlock(
			goslack.NewTextBlockObject(goslack.MarkdownType, text, false, false),
			nil, nil,
		),
	}
}

// buildEscalationBlocks creates Block Kit blocks for an EscalateToUser
// notification: the Feedback Loop Controller needs a human, and why.
func buildEscalationBlocks(event EscalationEvent, dashboardURL string) []goslack.Block {
	headerText := fmt.Sprintf(":rotating_light: *Needs your input* (attempt %d)\n*Reason:* %s", event.AttemptNo, event.Reason)
	if event.Detail != "" {
		headerText += fmt.Sprintf("\n\n%s", truncateForSlack(event.Detail))
	}

	blocks := []goslack.Block{
		goslack.NewSectionBlock(
			goslack.NewTextBlockObject(goslack.MarkdownType, headerText, false, false),
			nil, nil,
		),
	}

	url := sessionURL(event.SessionID, dashboardURL)
	btn := goslack.NewButtonBlockElement("", "", goslack.NewTextBlockObject(goslack.PlainTextType, "Review Session", false, false))
	btn.URL = url
	blocks = append(blocks, goslack.NewActionBlock("", btn))

	return blocks
}

// buildCompletedBlocks creates Block Kit blocks for a terminal-status
// notification.
func buildCompletedBlocks(event CompletedEvent, dashboardURL string) []goslack.Block {
	emoji := completedStatusEmoji[event.Status]
	if emoji == "" {
		emoji = ":question:"
	}
	label := completedStatusLabel[event.Status]
	if label == "" {
		label = "Session " + event.Status
	}

	var blocks []goslack.Block

	if event.Status == "committed" && event.ExecutiveSummary != "" {
		headerText := fmt.Sprintf("%s *%s*", emoji, label)
		blocks = append(blocks, goslack.NewSectionBlock(
			goslack.NewTextBlockObject(goslack.MarkdownType, headerText, false, false),
			nil, nil,
		))
		blocks = append(blocks, goslack.NewSectionBlock(
			goslack.NewTextBlockObject(goslack.MarkdownType, truncateForSlack(event.ExecutiveSummary), false, false),
			nil, nil,
		))
	} else {
		headerText := fmt.Sprintf("%s *%s*", emoji, label)
		if event.ErrorMessage != "" {
			headerText += fmt.Sprintf("\n\n*Error:*\n%s", truncateForSlack(event.ErrorMessage))
		}
		blocks = append(blocks, goslack.NewSectionBlock(
			goslack.NewTextBlockObject(goslack.MarkdownType, headerText, false, false),
			nil, nil,
		))
	}

	url := sessionURL(event.SessionID, dashboardURL)
	buttonText := "View Full Diff"
	if event.Status != "committed" {
		buttonText = "View Details"
	}

	btn := goslack.NewButtonBlockElement("", "", goslack.NewTextBlockObject(goslack.PlainTextType, buttonText, false, false))
	btn.URL = url
	blocks = append(blocks, goslack.NewActionBlock("", btn))

	return blocks
}

func truncateForSlack(text string) string {
	if len(text) <= maxBlockTextLength {
		return text
	}
	return text[:maxBlockTextLength] + "\n\n_... (truncated — view full detail in dashboard)_"
}
