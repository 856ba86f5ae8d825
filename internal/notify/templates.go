package notify

import (
	"bytes"
	"fmt"
	"html/template"
)

// Email bodies rendered per notification kind. Ported from the QuickSign Pro
// HTML mail templates.

var verificationTmpl = template.Must(template.New("verification").Parse(`
<div style="font-family: Arial, sans-serif; max-width: 600px; margin: 0 auto;">
    <h2 style="color: #333;">Welcome to QuickSign Pro!</h2>
    <p>Thank you for signing up. Please use the verification code below to complete your registration:</p>
    <div style="background-color: #f4f4f4; padding: 20px; text-align: center; margin: 20px 0;">
        <h1 style="color: #007bff; font-size: 32px; margin: 0;">{{.Code}}</h1>
    </div>
    <p>This code will expire in 10 minutes.</p>
    <p>If you didn't create an account with us, please ignore this email.</p>
    <hr style="margin: 30px 0;">
    <p style="color: #666; font-size: 12px;">QuickSign Pro - Digital Document Signing Platform</p>
</div>`))

var signatureRequestTmpl = template.Must(template.New("signature_request").Parse(`
<div style="font-family: Arial, sans-serif; max-width: 600px; margin: 0 auto; padding: 20px;">
    <div style="text-align: center; margin-bottom: 30px;">
        <h1 style="color: #2563eb; margin: 0;">QuickSign Pro</h1>
        <p style="color: #666; margin: 5px 0 0 0;">Digital Document Signing Platform</p>
    </div>
    <div style="background: #f8fafc; padding: 20px; border-radius: 8px; margin-bottom: 20px;">
        <h2 style="color: #1f2937; margin: 0 0 15px 0;">Document Signature Request</h2>
        <p style="margin: 0 0 10px 0;">Hello {{.RecipientName}},</p>
        <p style="margin: 0 0 15px 0;">{{.SenderName}} has sent you a document that requires your signature.</p>
        {{if .Message}}<p style="margin: 0 0 15px 0; font-style: italic;">{{.Message}}</p>{{end}}
    </div>
    <div style="text-align: center; margin: 30px 0;">
        <a href="{{.SigningLink}}" style="background: #2563eb; color: white; padding: 12px 30px; text-decoration: none; border-radius: 6px; font-weight: bold; display: inline-block;">Review and Sign Document</a>
    </div>
    <div style="background: #fef3c7; padding: 15px; border-radius: 6px; margin: 20px 0;">
        <p style="margin: 0; font-size: 14px; color: #92400e;">
            <strong>Security Notice:</strong> This link is unique to you and should not be shared with others.
        </p>
    </div>
    <div style="border-top: 1px solid #e5e7eb; padding-top: 20px; margin-top: 30px;">
        <p style="color: #666; font-size: 12px; margin: 0;">If you have any questions about this document, please contact {{.SenderName}}.</p>
        <p style="color: #666; font-size: 12px; margin: 10px 0 0 0;">This email was sent by QuickSign Pro on behalf of {{.SenderName}}.</p>
    </div>
</div>`))

var completionTmpl = template.Must(template.New("completion").Parse(`
<div style="font-family: Arial, sans-serif; max-width: 600px; margin: 0 auto; padding: 20px;">
    <div style="text-align: center; margin-bottom: 30px;">
        <h1 style="color: #2563eb; margin: 0;">QuickSign Pro</h1>
        <p style="color: #666; margin: 5px 0 0 0;">Digital Document Signing Platform</p>
    </div>
    <div style="background: #f0fdf4; padding: 20px; border-radius: 8px; margin-bottom: 20px; border-left: 4px solid #10b981;">
        <h2 style="color: #065f46; margin: 0 0 15px 0;">Document Completed</h2>
        <p style="margin: 0 0 10px 0;">Hello {{.RecipientName}},</p>
        <p style="margin: 0 0 15px 0;">
            {{if .IsRequester}}All required signatures have been collected for your document.{{else}}Thank you for signing. All required signatures have been collected.{{end}}
        </p>
        <p style="margin: 0; font-weight: bold;">Document: {{.DocumentName}}</p>
    </div>
    <div style="border-top: 1px solid #e5e7eb; padding-top: 20px; margin-top: 30px;">
        <p style="color: #666; font-size: 12px; margin: 0;">This document was processed through QuickSign Pro on behalf of {{.SenderName}}.</p>
        <p style="color: #666; font-size: 12px; margin: 10px 0 0 0;">For support, please contact our team or the document sender.</p>
    </div>
</div>`))

// renderBody renders the HTML body for the given notification.
func renderBody(n *Notification) (string, error) {
	var (
		buf bytes.Buffer
		err error
	)
	switch n.Kind {
	case KindVerification:
		err = verificationTmpl.Execute(&buf, struct{ Code string }{n.Payload["code"]})
	case KindSignatureRequest:
		err = signatureRequestTmpl.Execute(&buf, struct {
			RecipientName, SenderName, Message, SigningLink string
		}{n.RecipientName, n.Payload["senderName"], n.Payload["message"], n.Payload["signingLink"]})
	case KindCompletion:
		err = completionTmpl.Execute(&buf, struct {
			RecipientName, SenderName, DocumentName string
			IsRequester                             bool
		}{n.RecipientName, n.Payload["senderName"], n.Payload["documentName"], n.Payload["isRequester"] == "true"})
	default:
		err = fmt.Errorf("unknown notification kind %q", n.Kind)
	}
	if err != nil {
		return "", err
	}
	return buf.String(), nil
}
