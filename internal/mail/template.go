package mail

import "fmt"

const otpEmailSubject = "Your login code"

const otpEmailBody = `<!DOCTYPE html>
<html>
<head>
  <style>
    body { font-family: Arial, sans-serif; background-color: #f4f4f4; margin: 0; padding: 20px; }
    .container { max-width: 600px; margin: 0 auto; background-color: #ffffff; padding: 30px; border-radius: 8px; }
    .otp-code { background-color: #f8f9fa; border: 2px dashed #dee2e6; padding: 20px; text-align: center; font-size: 32px; font-weight: bold; letter-spacing: 8px; color: #495057; margin: 20px 0; border-radius: 4px; }
    .info { color: #6c757d; font-size: 14px; text-align: center; margin-top: 20px; }
  </style>
</head>
<body>
  <div class="container">
    <h1 style="color: #343a40; text-align: center;">Authentication Code</h1>
    <p style="color: #495057; font-size: 16px;">Your one-time login code is:</p>
    <div class="otp-code">%s</div>
    <div class="info">
      <p>This code will expire in <strong>%d minutes</strong>.</p>
      <p>If you didn't request this code, please ignore this email.</p>
    </div>
  </div>
</body>
</html>`

// OtpSubject returns the subject line for OTP delivery mail.
func OtpSubject() string {
	return otpEmailSubject
}

// OtpBody renders the OTP HTML body for the given code and expiry window.
func OtpBody(code string, expiryMinutes int) string {
	return fmt.Sprintf(otpEmailBody, code, expiryMinutes)
}
