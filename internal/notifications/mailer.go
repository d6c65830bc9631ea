package notifications

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/aws/aws-sdk-go-v2/service/sesv2/types"

	"github.com/cliqstr/cliqstr-backend/pkg/config"
	"github.com/cliqstr/cliqstr-backend/pkg/enums"
	"github.com/cliqstr/cliqstr-backend/pkg/logger"
	"github.com/cliqstr/cliqstr-backend/pkg/outbox/payloads"
)

// Mailer delivers the transactional email that moves the consent workflow
// forward: invite codes, consent links, and decision confirmations.
type Mailer interface {
	SendInvite(ctx context.Context, payload payloads.InviteCreatedEvent) error
	SendApprovalRequest(ctx context.Context, payload payloads.ApprovalRequestedEvent) error
	SendApprovalDecision(ctx context.Context, toEmail string, payload payloads.ApprovalDecidedEvent) error
	SendChildAccountReady(ctx context.Context, toEmail string, payload payloads.ChildAccountCreatedEvent) error
}

type sesMailer struct {
	client     *sesv2.Client
	fromEmail  string
	fromName   string
	appBaseURL string
	enabled    bool
	logg       *logger.Logger
}

// NewMailer builds an SES-backed mailer. When no from address is configured
// the mailer runs disabled: every send is logged and skipped, which keeps
// local and CI environments working without AWS credentials.
func NewMailer(ctx context.Context, cfg config.EmailConfig, logg *logger.Logger) (Mailer, error) {
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}

	if cfg.FromEmail == "" {
		logg.Info(ctx, "email delivery disabled: no from address configured")
		return &sesMailer{
			appBaseURL: cfg.AppBaseURL,
			enabled:    false,
			logg:       logg,
		}, nil
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.AWSRegion))
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	return &sesMailer{
		client:     sesv2.NewFromConfig(awsCfg),
		fromEmail:  cfg.FromEmail,
		fromName:   cfg.FromName,
		appBaseURL: cfg.AppBaseURL,
		enabled:    true,
		logg:       logg,
	}, nil
}

func (m *sesMailer) SendInvite(ctx context.Context, payload payloads.InviteCreatedEvent) error {
	subject, html, text := buildInviteEmail(m.appBaseURL, payload)
	return m.send(ctx, payload.InviteeEmail, subject, html, text)
}

func (m *sesMailer) SendApprovalRequest(ctx context.Context, payload payloads.ApprovalRequestedEvent) error {
	subject, html, text := buildApprovalRequestEmail(m.appBaseURL, payload)
	return m.send(ctx, payload.ParentEmail, subject, html, text)
}

func (m *sesMailer) SendApprovalDecision(ctx context.Context, toEmail string, payload payloads.ApprovalDecidedEvent) error {
	subject, html, text := buildApprovalDecisionEmail(m.appBaseURL, payload)
	return m.send(ctx, toEmail, subject, html, text)
}

func (m *sesMailer) SendChildAccountReady(ctx context.Context, toEmail string, payload payloads.ChildAccountCreatedEvent) error {
	subject, html, text := buildChildAccountReadyEmail(m.appBaseURL, payload)
	return m.send(ctx, toEmail, subject, html, text)
}

func (m *sesMailer) send(ctx context.Context, toEmail, subject, htmlBody, textBody string) error {
	logCtx := m.logg.WithFields(ctx, map[string]any{
		"to":      toEmail,
		"subject": subject,
	})

	if !m.enabled {
		m.logg.Info(logCtx, "email delivery disabled, skipping send")
		return nil
	}

	fromAddress := m.fromEmail
	if m.fromName != "" {
		fromAddress = fmt.Sprintf("%s <%s>", m.fromName, m.fromEmail)
	}

	input := &sesv2.SendEmailInput{
		FromEmailAddress: aws.String(fromAddress),
		Destination: &types.Destination{
			ToAddresses: []string{toEmail},
		},
		Content: &types.EmailContent{
			Simple: &types.Message{
				Subject: &types.Content{
					Data:    aws.String(subject),
					Charset: aws.String("UTF-8"),
				},
				Body: &types.Body{
					Html: &types.Content{
						Data:    aws.String(htmlBody),
						Charset: aws.String("UTF-8"),
					},
					Text: &types.Content{
						Data:    aws.String(textBody),
						Charset: aws.String("UTF-8"),
					},
				},
			},
		},
	}

	if _, err := m.client.SendEmail(ctx, input); err != nil {
		return fmt.Errorf("send email to %s: %w", toEmail, err)
	}

	m.logg.Info(logCtx, "email sent")
	return nil
}

const emailLayout = `<!DOCTYPE html>
<html>
<body style="font-family: Arial, sans-serif; line-height: 1.6; color: #333;">
<div style="max-width: 600px; margin: 0 auto; padding: 20px;">
%s
<p style="margin-top: 30px; font-size: 12px; color: #666;">This is an automated email from Cliqstr. Please do not reply.</p>
</div>
</body>
</html>`

func buildInviteEmail(baseURL string, payload payloads.InviteCreatedEvent) (subject, html, text string) {
	joinLink := fmt.Sprintf("%s/join?code=%s", baseURL, payload.Code)

	subject = "You're invited to join Cliqstr"
	if payload.InvitedRole == enums.AccountRoleChild {
		subject = "A Cliqstr invite for your child"
	}

	body := fmt.Sprintf(`<p>You've been invited to join Cliqstr, a private space for families and friends.</p>
<p>Use invite code <strong>%s</strong> or follow the link below:</p>
<p><a href="%s">%s</a></p>
<p>This invite expires on %s.</p>`,
		payload.Code, joinLink, joinLink, payload.ExpiresAt.Format("January 2, 2006"))
	if payload.InvitedRole == enums.AccountRoleChild {
		body = fmt.Sprintf(`<p>A parent on Cliqstr has invited your child to join their private group.</p>
<p>As the child's parent, you will review and approve the account before it is created.</p>
<p>Use invite code <strong>%s</strong> or follow the link below to get started:</p>
<p><a href="%s">%s</a></p>
<p>This invite expires on %s.</p>`,
			payload.Code, joinLink, joinLink, payload.ExpiresAt.Format("January 2, 2006"))
	}

	html = fmt.Sprintf(emailLayout, body)
	text = fmt.Sprintf("You've been invited to join Cliqstr.\n\nInvite code: %s\nJoin here: %s\n\nThis invite expires on %s.\n",
		payload.Code, joinLink, payload.ExpiresAt.Format("January 2, 2006"))
	return subject, html, text
}

func buildApprovalRequestEmail(baseURL string, payload payloads.ApprovalRequestedEvent) (subject, html, text string) {
	consentLink := fmt.Sprintf("%s/consent?token=%s", baseURL, payload.ApprovalToken)

	subject = fmt.Sprintf("Approve %s's Cliqstr account", payload.ChildFirstName)
	body := fmt.Sprintf(`<p>%s wants to join Cliqstr, and your approval is required before the account can be created.</p>
<p>Review the request and decide here:</p>
<p><a href="%s">%s</a></p>
<p>This link expires on %s. If you don't recognize this request, you can decline it or simply ignore this email.</p>`,
		payload.ChildFirstName, consentLink, consentLink, payload.ExpiresAt.Format("January 2, 2006"))

	html = fmt.Sprintf(emailLayout, body)
	text = fmt.Sprintf("%s wants to join Cliqstr and needs your approval.\n\nReview the request: %s\n\nThis link expires on %s.\n",
		payload.ChildFirstName, consentLink, payload.ExpiresAt.Format("January 2, 2006"))
	return subject, html, text
}

func buildApprovalDecisionEmail(baseURL string, payload payloads.ApprovalDecidedEvent) (subject, html, text string) {
	if payload.Status == enums.ApprovalStatusApproved {
		subject = "You approved a Cliqstr account"
		body := fmt.Sprintf(`<p>You approved a child account on Cliqstr. The account is active and linked to you as the parent.</p>
<p>You can review the child's permissions at any time from your dashboard:</p>
<p><a href="%s/dashboard">%s/dashboard</a></p>`, baseURL, baseURL)
		html = fmt.Sprintf(emailLayout, body)
		text = fmt.Sprintf("You approved a child account on Cliqstr.\n\nManage permissions: %s/dashboard\n", baseURL)
		return subject, html, text
	}

	subject = "Cliqstr account request declined"
	body := `<p>You declined a Cliqstr account request. No account was created and the request link is no longer valid.</p>`
	html = fmt.Sprintf(emailLayout, body)
	text = "You declined a Cliqstr account request. No account was created.\n"
	return subject, html, text
}

func buildChildAccountReadyEmail(baseURL string, payload payloads.ChildAccountCreatedEvent) (subject, html, text string) {
	subject = "A child account was created under your supervision"
	body := fmt.Sprintf(`<p>A Cliqstr account with the username <strong>%s</strong> was created under your parental supervision.</p>
<p>The child signs in with their username. You control what they can do from your dashboard:</p>
<p><a href="%s/dashboard">%s/dashboard</a></p>`, payload.Username, baseURL, baseURL)

	html = fmt.Sprintf(emailLayout, body)
	text = fmt.Sprintf("A Cliqstr account with the username %q was created under your parental supervision.\n\nManage permissions: %s/dashboard\n",
		payload.Username, baseURL)
	return subject, html, text
}
