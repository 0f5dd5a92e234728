package checkout

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/houseinmeta/backend/internal/basket"
	"github.com/houseinmeta/backend/internal/catalog"
	"github.com/houseinmeta/backend/internal/dispatch"
	"github.com/houseinmeta/backend/internal/model"
	"github.com/houseinmeta/backend/internal/payment"
)

// ErrSubmitInProgress возвращается при повторной отправке, пока предыдущая
// не завершилась. Управление отправкой блокируется на время сценария.
var ErrSubmitInProgress = errors.New("submission already in progress")

const currency = "eur"

// Gateway — контракт платёжного адаптера, необходимый сессии.
type Gateway interface {
	TokenizeCard(ctx context.Context, card payment.Card, billing payment.BillingDetails) (string, error)
	CreateIntent(ctx context.Context, amount int64, currency, paymentMethodID string, meta payment.IntentMetadata) (*payment.Intent, error)
	Confirm(ctx context.Context, intentID string) (*payment.Intent, error)
}

// Dispatcher — контракт клиента бекенда для сохранения заказа и писем.
type Dispatcher interface {
	SaveOrder(ctx context.Context, order model.Order) (*dispatch.Result, error)
	SendOrderEmail(ctx context.Context, order model.Order) (*dispatch.Result, error)
}

// SubmitInput — данные формы, передаваемые в момент отправки.
type SubmitInput struct {
	Customer      model.Customer
	Consent       model.Consent
	Card          payment.Card
	PaymentMethod model.PaymentMethod
}

// Result — итог сценария оформления. Сбой письма не считается сбоем заказа:
// он отражается отдельными полями, а заказ остаётся успешным.
type Result struct {
	Order      model.Order
	Flow       payment.FlowState
	OrderSaved bool
	EmailSent  bool
	EmailError string
}

// Session владеет состоянием одного оформления: корзиной файлов и выбранным
// пакетом. Глобального состояния нет — каждый сценарий получает свою сессию.
type Session struct {
	catalog    *catalog.Catalog
	assembler  *Assembler
	basket     *basket.Basket
	gateway    Gateway
	dispatcher Dispatcher
	logger     *zap.Logger

	mu         sync.Mutex
	packageID  string
	submitting bool
}

// NewSession создаёт сессию оформления с пустой корзиной.
func NewSession(cat *catalog.Catalog, schema FormSchema, gateway Gateway, dispatcher Dispatcher, logger *zap.Logger) *Session {
	return &Session{
		catalog:    cat,
		assembler:  NewAssembler(cat, schema),
		basket:     basket.New(),
		gateway:    gateway,
		dispatcher: dispatcher,
		logger:     logger,
	}
}

// SelectPackage фиксирует выбранный пакет, проверяя его по каталогу.
func (s *Session) SelectPackage(id string) error {
	if _, err := s.catalog.ByID(id); err != nil {
		return err
	}

	s.mu.Lock()
	s.packageID = id
	s.mu.Unlock()
	return nil
}

// SelectedPackage возвращает выбранный пакет, если выбор сделан.
func (s *Session) SelectedPackage() (model.Package, bool) {
	s.mu.Lock()
	id := s.packageID
	s.mu.Unlock()

	if id == "" {
		return model.Package{}, false
	}
	pkg, err := s.catalog.ByID(id)
	if err != nil {
		return model.Package{}, false
	}
	return pkg, true
}

// AddFiles принимает группу файлов целиком либо отклоняет её целиком.
func (s *Session) AddFiles(files []model.UploadedFile) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.basket.AddBatch(files)
}

// RemoveFile удаляет файл корзины по индексу.
func (s *Session) RemoveFile(index int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.basket.Remove(index)
}

// Files возвращает файлы корзины в порядке добавления.
func (s *Session) Files() []model.UploadedFile {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.basket.List()
}

// Reset очищает корзину и сбрасывает выбор пакета.
func (s *Session) Reset() {
	s.mu.Lock()
	s.basket.Clear()
	s.packageID = ""
	s.mu.Unlock()
}

// Submit проводит заказ по всей цепочке: валидация, оплата картой при
// необходимости, сохранение заказа, письмо-подтверждение. Идентификатор
// заказа генерируется до сетевых вызовов, поэтому повтор после тайм-аута
// не создаёт дубликата. Сбой письма логируется и не отменяет заказ.
func (s *Session) Submit(ctx context.Context, in SubmitInput) (*Result, error) {
	s.mu.Lock()
	if s.submitting {
		s.mu.Unlock()
		return nil, ErrSubmitInProgress
	}
	s.submitting = true
	packageID := s.packageID
	files := s.basket.List()
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.submitting = false
		s.mu.Unlock()
	}()

	order, err := s.assembler.Build(BuildInput{
		OrderID:       "ORD-" + uuid.NewString(),
		Timestamp:     time.Now(),
		PackageID:     packageID,
		Customer:      in.Customer,
		Consent:       in.Consent,
		Files:         files,
		PaymentMethod: in.PaymentMethod,
	})
	if err != nil {
		return nil, err
	}

	flow := payment.NewFlow()
	res := &Result{Order: order}

	// Банковский перевод минует карточный сценарий целиком.
	if order.PaymentMethod == model.PaymentMethodCard {
		if err := s.pay(ctx, flow, order, in.Card); err != nil {
			res.Flow = flow.State()
			return res, err
		}
	}
	res.Flow = flow.State()

	if _, err := s.dispatcher.SaveOrder(ctx, order); err != nil {
		return res, fmt.Errorf("save order %s: %w", order.OrderID, err)
	}
	res.OrderSaved = true

	if mailRes, err := s.dispatcher.SendOrderEmail(ctx, order); err != nil {
		s.logger.Warn("order confirmation email failed",
			zap.String("order_id", order.OrderID), zap.Error(err))
		res.EmailError = err.Error()
	} else if !mailRes.OK {
		res.EmailError = mailRes.Err
	} else {
		res.EmailSent = true
	}

	s.mu.Lock()
	s.basket.Clear()
	s.packageID = ""
	s.mu.Unlock()

	return res, nil
}

// pay проводит карточную оплату по состояниям платёжного сценария.
// Любая ошибка провайдера завершает сценарий без повторных попыток,
// сообщение провайдера уходит вызывающему дословно.
func (s *Session) pay(ctx context.Context, flow *payment.Flow, order model.Order, card payment.Card) error {
	_ = flow.To(payment.FlowTokenizing)

	token, err := s.gateway.TokenizeCard(ctx, card, payment.BillingDetails{
		Name:  order.Customer.FullName(),
		Email: order.Customer.Email,
		Phone: order.Customer.Phone,
	})
	if err != nil {
		_ = flow.To(payment.FlowFailed)
		return err
	}

	amount := order.Total.Mul(decimal.NewFromInt(100)).IntPart()
	intent, err := s.gateway.CreateIntent(ctx, amount, currency, token, payment.IntentMetadata{
		OrderID:       order.OrderID,
		CustomerEmail: order.Customer.Email,
		PackageName:   order.PackageName,
	})
	if err != nil {
		_ = flow.To(payment.FlowFailed)
		return err
	}
	_ = flow.To(payment.FlowIntentCreated)

	switch intent.Status {
	case payment.StatusSucceeded:
		_ = flow.To(payment.FlowSucceeded)
		return nil
	case payment.StatusRequiresAction:
		_ = flow.To(payment.FlowConfirming)
		confirmed, err := s.gateway.Confirm(ctx, intent.ID)
		if err != nil {
			_ = flow.To(payment.FlowFailed)
			return err
		}
		if confirmed.Status != payment.StatusSucceeded {
			_ = flow.To(payment.FlowFailed)
			return &payment.GatewayError{Message: "Payment was not completed. Please try again."}
		}
		_ = flow.To(payment.FlowSucceeded)
		return nil
	default:
		_ = flow.To(payment.FlowFailed)
		return &payment.GatewayError{Message: fmt.Sprintf("Unexpected payment status: %s", intent.Status)}
	}
}
