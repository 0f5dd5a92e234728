package checkout

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/houseinmeta/backend/internal/catalog"
	"github.com/houseinmeta/backend/internal/model"
	"github.com/houseinmeta/backend/internal/validation"
)

// ValidationError называет первое отсутствующее или некорректное поле формы.
// Никогда не повторяется и останавливает оформление до любых сетевых вызовов.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// Assembler собирает заказ из выбранного пакета, полей формы и файлов корзины.
// Не выполняет побочных эффектов: запись только конструируется, не передаётся.
type Assembler struct {
	catalog *catalog.Catalog
	schema  FormSchema
}

// NewAssembler создаёт сборщик заказов для заданной схемы формы.
func NewAssembler(cat *catalog.Catalog, schema FormSchema) *Assembler {
	return &Assembler{
		catalog: cat,
		schema:  schema,
	}
}

// BuildInput — входные данные сборки заказа. Идентификатор и время задаются
// вызывающим, поэтому результат детерминирован для одинаковых входов.
type BuildInput struct {
	OrderID       string
	Timestamp     time.Time
	PackageID     string
	Customer      model.Customer
	Consent       model.Consent
	Files         []model.UploadedFile
	PaymentMethod model.PaymentMethod
}

// Build валидирует форму в фиксированном порядке и возвращает заказ.
// Порядок проверок: файлы, пакет, обязательные текстовые поля, адрес почты,
// согласия. Необязательные по схеме поля пропускаются, а не считаются ошибкой.
func (a *Assembler) Build(in BuildInput) (model.Order, error) {
	if len(in.Files) == 0 {
		return model.Order{}, &ValidationError{Field: "files", Message: "Please upload at least one floor plan file"}
	}

	if in.PackageID == "" {
		return model.Order{}, &ValidationError{Field: "package", Message: "Please select a package"}
	}
	pkg, err := a.catalog.ByID(in.PackageID)
	if err != nil {
		return model.Order{}, &ValidationError{Field: "package", Message: "Please select a package"}
	}

	if err := a.checkTextFields(in.Customer); err != nil {
		return model.Order{}, err
	}

	if !validation.IsValidEmail(in.Customer.Email) {
		return model.Order{}, &ValidationError{Field: "email", Message: "Please enter a valid email address"}
	}

	if a.schema.RequireTerms && !in.Consent.Terms {
		return model.Order{}, &ValidationError{Field: "terms", Message: "Please accept the Terms and Conditions"}
	}
	if a.schema.RequireDataProcessing && !in.Consent.DataProcessing {
		return model.Order{}, &ValidationError{Field: "dataProcessing", Message: "Please consent to data processing"}
	}

	if in.PaymentMethod != model.PaymentMethodCard && in.PaymentMethod != model.PaymentMethodBankTransfer {
		return model.Order{}, &ValidationError{Field: "paymentMethod", Message: "Please select a payment method"}
	}

	subtotal := pkg.Price
	tax := subtotal.Mul(model.TaxRate).Round(2)
	total := subtotal.Mul(decimal.NewFromInt(1).Add(model.TaxRate)).Round(2)

	files := make([]model.OrderFile, 0, len(in.Files))
	for _, f := range in.Files {
		files = append(files, model.OrderFile{Name: f.Name, Size: f.Size})
	}

	return model.Order{
		OrderID:       in.OrderID,
		Timestamp:     in.Timestamp,
		Customer:      in.Customer,
		Consent:       in.Consent,
		PackageID:     pkg.ID,
		PackageName:   pkg.Name,
		Subtotal:      subtotal,
		Tax:           tax,
		Total:         total,
		PaymentMethod: in.PaymentMethod,
		Files:         files,
	}, nil
}

func (a *Assembler) checkTextFields(c model.Customer) error {
	type field struct {
		name     string
		label    string
		value    string
		required bool
	}

	fields := []field{
		{"firstName", "First Name", c.FirstName, true},
		{"lastName", "Last Name", c.LastName, a.schema.RequireLastName},
		{"email", "Email", c.Email, true},
		{"phone", "Phone", c.Phone, a.schema.RequirePhone},
	}

	for _, f := range fields {
		if f.required && strings.TrimSpace(f.value) == "" {
			return &ValidationError{Field: f.name, Message: "Please fill in the " + f.label + " field"}
		}
	}
	return nil
}
