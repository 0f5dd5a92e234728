package mail

import (
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/houseinmeta/backend/internal/model"
)

func orderData() OrderEmailData {
	return OrderEmailData{
		CustomerName: "Max Muster",
		OrderID:      "ORD-test-1",
		PackageName:  "3D Pro",
		Subtotal:     decimal.NewFromFloat(69.99),
		Tax:          decimal.NewFromFloat(7.00),
		Total:        decimal.NewFromFloat(76.99),
		Files: []model.OrderFile{
			{Name: "plan.pdf", Size: 2 * 1024 * 1024},
			{Name: "photo.jpg", Size: 512 * 1024},
		},
		Timestamp: time.Date(2026, 2, 10, 12, 0, 0, 0, time.UTC),
	}
}

func TestRenderOrderConfirmation(t *testing.T) {
	html, err := RenderOrderConfirmation(orderData())
	if err != nil {
		t.Fatalf("RenderOrderConfirmation error: %v", err)
	}

	for _, want := range []string{
		"Order Confirmation",
		"Dear <strong>Max Muster</strong>",
		"ORD-test-1",
		"February 10, 2026",
		"3D Pro",
		"Subtotal: €69.99",
		"Tax (10%): €7.00",
		"<strong>Total Amount: €76.99</strong>",
		"plan.pdf (2.00 MB)",
		"photo.jpg (0.50 MB)",
		"UPLOADED FILES (2)",
		"What Happens Next?",
	} {
		if !strings.Contains(html, want) {
			t.Errorf("rendered email missing %q", want)
		}
	}
}

func TestRenderOrderConfirmation_Deterministic(t *testing.T) {
	a, err := RenderOrderConfirmation(orderData())
	if err != nil {
		t.Fatalf("first render: %v", err)
	}
	b, err := RenderOrderConfirmation(orderData())
	if err != nil {
		t.Fatalf("second render: %v", err)
	}
	if a != b {
		t.Fatalf("renders of identical data differ")
	}
}

func TestRenderFloorPlanAck(t *testing.T) {
	html, err := RenderFloorPlanAck(FloorPlanEmailData{
		ProjectName: "My House",
		PersonName:  "Max Muster",
		Email:       "max@example.com",
		Files:       []model.OrderFile{{Name: "plan.pdf", Size: 1024 * 1024}},
		SubmittedAt: time.Date(2026, 2, 10, 12, 0, 0, 0, time.UTC),
	})
	if err != nil {
		t.Fatalf("RenderFloorPlanAck error: %v", err)
	}

	for _, want := range []string{
		"Floor Plan Submission Received",
		"My House",
		"Max Muster",
		"max@example.com",
		"Files Uploaded: 1",
		"plan.pdf (1.00 MB)",
		"WHAT'S NEXT?",
	} {
		if !strings.Contains(html, want) {
			t.Errorf("rendered email missing %q", want)
		}
	}
}

func TestRenderOrderConfirmation_EscapesHTML(t *testing.T) {
	data := orderData()
	data.CustomerName = "<script>alert(1)</script>"

	html, err := RenderOrderConfirmation(data)
	if err != nil {
		t.Fatalf("RenderOrderConfirmation error: %v", err)
	}
	if strings.Contains(html, "<script>") {
		t.Fatalf("customer name must be escaped")
	}
}
