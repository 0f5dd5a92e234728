// Package mail реализует рендеринг и отправку почтовых уведомлений.
package mail

import (
	"fmt"
	"html/template"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/houseinmeta/backend/internal/model"
)

// OrderEmailData — данные письма-подтверждения заказа.
type OrderEmailData struct {
	CustomerName string
	OrderID      string
	PackageName  string
	Subtotal     decimal.Decimal
	Tax          decimal.Decimal
	Total        decimal.Decimal
	Files        []model.OrderFile
	Timestamp    time.Time
}

// FloorPlanEmailData — данные письма-подтверждения заявки с планировкой.
type FloorPlanEmailData struct {
	ProjectName string
	PersonName  string
	Email       string
	Files       []model.OrderFile
	SubmittedAt time.Time
}

type fileView struct {
	Name string
	Size string
}

type orderView struct {
	CustomerName string
	OrderID      string
	OrderDate    string
	PackageName  string
	Subtotal     string
	Tax          string
	Total        string
	Files        []fileView
	FilesCount   int
}

type floorPlanView struct {
	ProjectName string
	PersonName  string
	Email       string
	SubmittedAt string
	Files       []fileView
	FilesCount  int
}

var orderTmpl = template.Must(template.New("order").Parse(`<!DOCTYPE html>
<html>
<head><meta charset="UTF-8"></head>
<body style="font-family:'Segoe UI',Tahoma,Geneva,Verdana,sans-serif;color:#333;background-color:#f5f5f5;margin:0;padding:0;">
  <div style="max-width:600px;margin:0 auto;padding:20px;background-color:#fff;">
    <div style="background:linear-gradient(135deg,#667eea 0%,#764ba2 100%);color:white;padding:30px;border-radius:8px 8px 0 0;text-align:center;">
      <h1 style="margin:0;font-size:28px;">Order Confirmation</h1>
      <p style="margin:10px 0 0 0;font-size:14px;">Thank you for choosing House In Meta!</p>
    </div>
    <div style="padding:30px;">
      <p>Dear <strong>{{.CustomerName}}</strong>,</p>
      <p>Your order has been successfully placed and paid. Your 3D floor plan conversion has been scheduled and will begin processing shortly. Below are your complete order details for your records.</p>
      <div style="margin:25px 0;padding:20px;background:#f9f9f9;border-left:4px solid #667eea;">
        <h3 style="color:#667eea;margin:0 0 15px 0;">ORDER INFORMATION</h3>
        <p>Order ID: <strong>{{.OrderID}}</strong></p>
        <p>Date: {{.OrderDate}}</p>
        <p>Package: <strong>{{.PackageName}}</strong></p>
      </div>
      <div style="margin:25px 0;padding:20px;background:#f9f9f9;border-left:4px solid #667eea;">
        <h3 style="color:#667eea;margin:0 0 15px 0;">UPLOADED FILES ({{.FilesCount}})</h3>
        <ul style="list-style:none;padding-left:0;">
{{range .Files}}          <li style="padding:8px 0;border-bottom:1px solid #eee;color:#555;">{{.Name}} ({{.Size}})</li>
{{end}}        </ul>
      </div>
      <div style="margin:25px 0;padding:20px;background:#f9f9f9;border-left:4px solid #667eea;">
        <h3 style="color:#667eea;margin:0 0 15px 0;">ORDER TOTAL</h3>
        <p>Subtotal: €{{.Subtotal}}</p>
        <p>Tax (10%): €{{.Tax}}</p>
        <p style="font-size:18px;color:#764ba2;"><strong>Total Amount: €{{.Total}}</strong></p>
      </div>
      <div style="padding:20px;margin:20px 0;">
        <h3 style="color:#667eea;margin-top:0;">What Happens Next?</h3>
        <ol style="padding-left:20px;color:#555;">
          <li><strong>Files Processing:</strong> Our team will review your uploaded floor plans and architectural files</li>
          <li><strong>Quality Check:</strong> We'll verify the file quality and completeness of the designs</li>
          <li><strong>3D Conversion:</strong> Using advanced software, we'll convert your 2D plans into immersive 3D models</li>
          <li><strong>Delivery:</strong> Your 3D files will be delivered via email with comprehensive viewing instructions</li>
        </ol>
      </div>
      <p>Best regards,<br/><strong>The House In Meta Team</strong></p>
      <div style="margin-top:30px;padding:20px 0;border-top:1px solid #ddd;text-align:center;font-size:12px;color:#999;">
        <p>support@houseinmeta.com | houseinmeta.com</p>
        <p>This is an automated message. Please do not reply directly to this email.</p>
      </div>
    </div>
  </div>
</body>
</html>
`))

var floorPlanTmpl = template.Must(template.New("floorplan").Parse(`<!DOCTYPE html>
<html>
<head><meta charset="UTF-8"></head>
<body style="font-family:'Segoe UI',Tahoma,Geneva,Verdana,sans-serif;color:#333;background-color:#f5f5f5;margin:0;padding:0;">
  <div style="max-width:600px;margin:0 auto;padding:20px;background-color:#fff;border-radius:8px;">
    <div style="background:linear-gradient(135deg,#667eea 0%,#764ba2 100%);color:white;padding:30px;border-radius:8px 8px 0 0;text-align:center;">
      <h1 style="margin:0;font-size:24px;">Floor Plan Submission Received</h1>
    </div>
    <div style="padding:30px;">
      <p>Hello {{.PersonName}},</p>
      <p>Thank you for submitting your project! We have received your floor plans and will process them shortly.</p>
      <div style="margin:20px 0;padding:15px;background:#f9f9f9;border-left:4px solid #667eea;">
        <h3 style="color:#667eea;margin:0 0 10px 0;">PROJECT DETAILS</h3>
        <p>Project Name: {{.ProjectName}}</p>
        <p>Your Name: {{.PersonName}}</p>
        <p>Email: {{.Email}}</p>
        <p>Files Uploaded: {{.FilesCount}}</p>
        <p>Submission Time: {{.SubmittedAt}}</p>
      </div>
      <div style="margin:20px 0;padding:15px;background:#f9f9f9;border-left:4px solid #667eea;">
        <h3 style="color:#667eea;margin:0 0 10px 0;">UPLOADED FILES</h3>
        <ul style="list-style:none;padding-left:0;">
{{range .Files}}          <li style="padding:8px 0;border-bottom:1px solid #eee;color:#555;">{{.Name}} ({{.Size}})</li>
{{end}}        </ul>
      </div>
      <div style="margin:20px 0;padding:15px;background:#f9f9f9;border-left:4px solid #667eea;">
        <h3 style="color:#667eea;margin:0 0 10px 0;">WHAT'S NEXT?</h3>
        <p>Our team will review your floor plans and begin the 3D conversion process. You will receive updates via email about your project status within 24-48 hours.</p>
      </div>
      <div style="margin-top:30px;padding:20px 0;border-top:1px solid #ddd;text-align:center;font-size:12px;color:#999;">
        <p>Thank you for choosing House In Meta!</p>
        <p>&copy; 2026 House In Meta. All rights reserved.</p>
      </div>
    </div>
  </div>
</body>
</html>
`))

func fileViews(files []model.OrderFile) []fileView {
	out := make([]fileView, 0, len(files))
	for _, f := range files {
		out = append(out, fileView{
			Name: f.Name,
			Size: fmt.Sprintf("%.2f MB", float64(f.Size)/1024/1024),
		})
	}
	return out
}

// RenderOrderConfirmation формирует HTML письма-подтверждения заказа.
// Результат детерминирован для одинаковых входных данных.
func RenderOrderConfirmation(data OrderEmailData) (string, error) {
	view := orderView{
		CustomerName: data.CustomerName,
		OrderID:      data.OrderID,
		OrderDate:    data.Timestamp.Format("January 2, 2006"),
		PackageName:  data.PackageName,
		Subtotal:     data.Subtotal.StringFixed(2),
		Tax:          data.Tax.StringFixed(2),
		Total:        data.Total.StringFixed(2),
		Files:        fileViews(data.Files),
		FilesCount:   len(data.Files),
	}

	var sb strings.Builder
	if err := orderTmpl.Execute(&sb, view); err != nil {
		return "", fmt.Errorf("execute order template: %w", err)
	}
	return sb.String(), nil
}

// RenderFloorPlanAck формирует HTML письма-подтверждения заявки с планировкой.
func RenderFloorPlanAck(data FloorPlanEmailData) (string, error) {
	view := floorPlanView{
		ProjectName: data.ProjectName,
		PersonName:  data.PersonName,
		Email:       data.Email,
		SubmittedAt: data.SubmittedAt.UTC().Format(time.RFC1123),
		Files:       fileViews(data.Files),
		FilesCount:  len(data.Files),
	}

	var sb strings.Builder
	if err := floorPlanTmpl.Execute(&sb, view); err != nil {
		return "", fmt.Errorf("execute floor plan template: %w", err)
	}
	return sb.String(), nil
}
