// Package order implements the per-buyer order state machine: quote →
// private channel → payment instrument → settlement, cancellation, or
// expiry.
package order

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strconv"
	"strings"
	"sync"
	"time"

	"venusstore/internal/domain"
	"venusstore/internal/lightning"
	"venusstore/internal/pix"
)

// transport is the slice of the messaging platform the state machine needs.
// Every method may fail; only channel creation failure is surfaced to the
// buyer, the rest are logged and tolerated.
type transport interface {
	CreateOrderChannel(ctx context.Context, buyerID, buyerName string) (channelID string, err error)
	DeleteChannel(ctx context.Context, channelID, reason string) error
	SendChannelMessage(ctx context.Context, channelID, content string) error
	ResolveBuyer(ctx context.Context, channelID string) (string, error)
	GrantCustomerRole(ctx context.Context, buyerID string) error
	NotifyBuyer(ctx context.Context, buyerID string, s domain.Sale) error
	AnnounceDelivery(ctx context.Context, s domain.Sale) error
	RequestReview(ctx context.Context, buyerID string) error
}

type invoicer interface {
	CreateInvoice(ctx context.Context, amountBRL float64, memo string) (*lightning.Invoice, error)
	CheckStatus(ctx context.Context, paymentHash string) (lightning.Status, error)
}

type salesLedger interface {
	Append(ctx context.Context, s domain.Sale) error
}

// Config carries the storefront constants the state machine needs.
type Config struct {
	OwnerID      string
	PixKey       string
	ReceiverName string
	ReceiverCity string
	OrderTimeout time.Duration // deadline before the expiry warning
	WarnGrace    time.Duration // warning → channel deletion
	CloseDelay   time.Duration // settlement → channel deletion
}

// Service runs every in-flight order, keyed by its channel.
type Service struct {
	mu       sync.Mutex
	sessions map[string]*session

	transport transport
	gateway   invoicer
	ledger    salesLedger
	cfg       Config
	logger    *log.Logger
}

// session pairs an order with its cancellable timers. mu serializes all
// transitions on one order, so two racing confirmations cannot both settle.
type session struct {
	mu          sync.Mutex
	order       *domain.Order
	warnTimer   *time.Timer
	deleteTimer *time.Timer
}

// New builds a Service. Zero durations in cfg select the storefront
// defaults: 60 min to expiry, 60 s warning grace, 15 s post-settlement.
func New(tr transport, gateway invoicer, ledger salesLedger, cfg Config, logger *log.Logger) *Service {
	if cfg.OrderTimeout <= 0 {
		cfg.OrderTimeout = time.Hour
	}
	if cfg.WarnGrace <= 0 {
		cfg.WarnGrace = time.Minute
	}
	if cfg.CloseDelay <= 0 {
		cfg.CloseDelay = 15 * time.Second
	}
	return &Service{
		sessions:  make(map[string]*session),
		transport: tr,
		gateway:   gateway,
		ledger:    ledger,
		cfg:       cfg,
		logger:    logger,
	}
}

// Quote is a priced calculator result, not yet an order.
type Quote struct {
	Kind           domain.ProductKind
	Quantity       float64
	Price          float64
	BundleQuantity int // listing size suggestion for currency quotes
}

// BuildQuote validates the buyer's raw amount input and prices it. Commas
// are accepted as decimal separators.
func (s *Service) BuildQuote(kind domain.ProductKind, rawAmount string) (Quote, error) {
	if !kind.Valid() {
		return Quote{}, fmt.Errorf("%w: unknown kind %q", domain.ErrInvalidAmount, kind)
	}
	quantity, err := strconv.ParseFloat(strings.ReplaceAll(strings.TrimSpace(rawAmount), ",", "."), 64)
	if err != nil || quantity <= 0 {
		return Quote{}, domain.ErrInvalidAmount
	}
	q := Quote{
		Kind:     kind,
		Quantity: quantity,
		Price:    domain.Price(kind, quantity),
	}
	if kind == domain.KindCurrency {
		q.BundleQuantity = domain.BundleQuantity(quantity)
	}
	return q, nil
}

// Open turns a confirmed quote into a live order: creates the private
// channel, registers the session, and arms the expiry timers.
func (s *Service) Open(ctx context.Context, buyerID, buyerName string, kind domain.ProductKind, quantity float64) (*domain.Order, error) {
	if !kind.Valid() || quantity <= 0 {
		return nil, domain.ErrInvalidAmount
	}

	channelID, err := s.transport.CreateOrderChannel(ctx, buyerID, buyerName)
	if err != nil {
		return nil, fmt.Errorf("create order channel: %w", err)
	}

	now := time.Now()
	o := &domain.Order{
		ID:        strconv.FormatInt(now.UnixMilli(), 10),
		Kind:      kind,
		Quantity:  quantity,
		Price:     domain.Price(kind, quantity),
		BuyerID:   buyerID,
		ChannelID: channelID,
		Status:    domain.StatusAwaitingChoice,
		CreatedAt: now,
		ExpiresAt: now.Add(s.cfg.OrderTimeout),
	}
	sess := &session{order: o}
	sess.warnTimer = time.AfterFunc(s.cfg.OrderTimeout, func() { s.expire(channelID) })

	s.mu.Lock()
	s.sessions[channelID] = sess
	s.mu.Unlock()

	return o, nil
}

// CloseDelay reports how long a settled channel stays open, for user-facing
// closing notices.
func (s *Service) CloseDelay() time.Duration {
	return s.cfg.CloseDelay
}

// Get returns the order owned by channelID.
func (s *Service) Get(channelID string) (*domain.Order, bool) {
	sess, ok := s.lookup(channelID)
	if !ok {
		return nil, false
	}
	sess.mu.Lock()
	defer sess.mu.Unlock()
	o := *sess.order
	return &o, true
}

// SelectPix generates the static bank-transfer instrument for the order.
// Any previously selected instrument is discarded.
func (s *Service) SelectPix(ctx context.Context, channelID, actorID string) (*domain.Order, error) {
	sess, ok := s.lookup(channelID)
	if !ok {
		return nil, domain.ErrNotFound
	}
	sess.mu.Lock()
	defer sess.mu.Unlock()

	o := sess.order
	if err := s.authorizeBuyer(o, actorID); err != nil {
		return nil, err
	}
	if o.Status.Terminal() {
		return nil, domain.ErrNotFound
	}

	payload := pix.EncodePayload(s.cfg.PixKey, o.Price, s.cfg.ReceiverName, s.cfg.ReceiverCity, "pedido"+o.ID)
	o.Lightning = nil
	o.Pix = &domain.PixPayment{Payload: payload}
	o.Status = domain.StatusAwaitingPayment
	snapshot := *o
	return &snapshot, nil
}

// SelectLightning asks the payment provider for an invoice. On provider
// failure the order stays where it was and the buyer may retry.
func (s *Service) SelectLightning(ctx context.Context, channelID, actorID string) (*domain.Order, error) {
	sess, ok := s.lookup(channelID)
	if !ok {
		return nil, domain.ErrNotFound
	}
	sess.mu.Lock()
	defer sess.mu.Unlock()

	o := sess.order
	if err := s.authorizeBuyer(o, actorID); err != nil {
		return nil, err
	}
	if o.Status.Terminal() {
		return nil, domain.ErrNotFound
	}

	memo := fmt.Sprintf("%s - %v %s", s.cfg.ReceiverName, o.Quantity, o.Kind)
	inv, err := s.gateway.CreateInvoice(ctx, o.Price, memo)
	if err != nil {
		// Order state untouched: retry is the buyer's call.
		return nil, err
	}

	o.Pix = nil
	o.Lightning = &domain.LightningPayment{
		PaymentRequest: inv.PaymentRequest,
		PaymentHash:    inv.PaymentHash,
		AmountBRL:      inv.AmountBRL,
		AmountUSD:      inv.AmountUSD,
	}
	o.Status = domain.StatusAwaitingPayment
	snapshot := *o
	return &snapshot, nil
}

// Back discards the selected instrument and returns to the method choice.
// Abandoned invoices are not cancelled remotely; they simply expire.
func (s *Service) Back(ctx context.Context, channelID, actorID string) (*domain.Order, error) {
	sess, ok := s.lookup(channelID)
	if !ok {
		return nil, domain.ErrNotFound
	}
	sess.mu.Lock()
	defer sess.mu.Unlock()

	o := sess.order
	if err := s.authorizeBuyer(o, actorID); err != nil {
		return nil, err
	}
	if o.Status.Terminal() {
		return nil, domain.ErrNotFound
	}

	o.Pix = nil
	o.Lightning = nil
	o.Status = domain.StatusAwaitingChoice
	snapshot := *o
	return &snapshot, nil
}

// Cancel terminates the order and deletes its channel immediately.
func (s *Service) Cancel(ctx context.Context, channelID, actorID string) error {
	sess, ok := s.lookup(channelID)
	if !ok {
		return domain.ErrNotFound
	}
	sess.mu.Lock()
	o := sess.order
	if err := s.authorizeBuyer(o, actorID); err != nil {
		sess.mu.Unlock()
		return err
	}
	if o.Status.Terminal() {
		sess.mu.Unlock()
		return domain.ErrNotFound
	}
	o.Status = domain.StatusCancelled
	sess.stopTimers()
	sess.mu.Unlock()

	s.drop(channelID)
	if err := s.transport.DeleteChannel(ctx, channelID, "pedido cancelado"); err != nil {
		s.logf("delete cancelled channel %s: %v", channelID, err)
	}
	return nil
}

// ConfirmManual settles the order on the owner's say-so. This is the trust
// path for Pix, where no provider callback exists.
func (s *Service) ConfirmManual(ctx context.Context, channelID, actorID string) (*domain.Sale, error) {
	if actorID != s.cfg.OwnerID {
		return nil, domain.ErrNotOwner
	}
	sess, ok := s.lookup(channelID)
	if !ok {
		return nil, domain.ErrNotFound
	}
	return s.settle(ctx, sess)
}

// VerifyLightning polls the provider for the invoice's status and settles
// automatically when it reports paid. The provider's ledger is authoritative
// here; no owner action is needed.
func (s *Service) VerifyLightning(ctx context.Context, channelID string) (lightning.Status, *domain.Sale, error) {
	sess, ok := s.lookup(channelID)
	if !ok {
		return "", nil, domain.ErrNotFound
	}

	sess.mu.Lock()
	o := sess.order
	if o.Status == domain.StatusSettled {
		sess.mu.Unlock()
		return lightning.StatusPaid, nil, domain.ErrAlreadySettled
	}
	if o.Lightning == nil {
		sess.mu.Unlock()
		return "", nil, domain.ErrNotFound
	}
	hash := o.Lightning.PaymentHash
	sess.mu.Unlock()

	status, err := s.gateway.CheckStatus(ctx, hash)
	if err != nil {
		return "", nil, err
	}
	if status != lightning.StatusPaid {
		return status, nil, nil
	}

	sale, err := s.settle(ctx, sess)
	if err != nil {
		return status, nil, err
	}
	return status, sale, nil
}

// settle performs the settlement side effects exactly once, in order: durable
// ledger append, role grant, buyer DM, delivery notices, review request,
// delayed channel deletion. Only the append is allowed to abort; everything
// after it is logged and tolerated.
func (s *Service) settle(ctx context.Context, sess *session) (*domain.Sale, error) {
	sess.mu.Lock()
	defer sess.mu.Unlock()

	o := sess.order
	if o.Status == domain.StatusSettled {
		return nil, domain.ErrAlreadySettled
	}
	if o.Status.Terminal() {
		return nil, domain.ErrNotFound
	}
	method := o.Method()
	if method == "" {
		return nil, fmt.Errorf("order %s has no payment instrument", o.ID)
	}

	// The buyer is whoever holds an explicit grant on the channel, not
	// whatever the session remembers. An orphaned channel settles nothing.
	buyerID, err := s.transport.ResolveBuyer(ctx, o.ChannelID)
	if err != nil || buyerID == "" {
		if err == nil {
			err = domain.ErrBuyerNotFound
		}
		return nil, err
	}

	sale := domain.Sale{
		ID:       strconv.FormatInt(time.Now().UnixMilli(), 10),
		Kind:     o.Kind,
		Quantity: o.Quantity,
		Price:    o.Price,
		BuyerID:  buyerID,
		Method:   method,
		SoldAt:   time.Now().UTC(),
	}
	if err := s.ledger.Append(ctx, sale); err != nil {
		// Not settled: the authoritative record failed, retry is allowed.
		return nil, fmt.Errorf("record sale: %w", err)
	}

	o.Status = domain.StatusSettled
	sess.stopTimers()

	if err := s.transport.GrantCustomerRole(ctx, buyerID); err != nil {
		s.logf("grant customer role to %s: %v", buyerID, err)
	}
	if err := s.transport.NotifyBuyer(ctx, buyerID, sale); err != nil {
		s.logf("DM buyer %s: %v", buyerID, err)
	}
	if err := s.transport.AnnounceDelivery(ctx, sale); err != nil {
		s.logf("announce delivery for sale %s: %v", sale.ID, err)
	}
	if err := s.transport.RequestReview(ctx, buyerID); err != nil {
		s.logf("request review from %s: %v", buyerID, err)
	}

	channelID := o.ChannelID
	sess.deleteTimer = time.AfterFunc(s.cfg.CloseDelay, func() {
		s.drop(channelID)
		if err := s.transport.DeleteChannel(context.Background(), channelID, "pedido finalizado"); err != nil {
			s.logf("delete settled channel %s: %v", channelID, err)
		}
	})

	return &sale, nil
}

// expire fires at the order deadline: warn the channel, then delete it one
// grace interval later. Racing a settlement or cancellation is harmless; the
// terminal check makes the loser a no-op.
func (s *Service) expire(channelID string) {
	sess, ok := s.lookup(channelID)
	if !ok {
		return
	}
	sess.mu.Lock()
	if sess.order.Status.Terminal() {
		sess.mu.Unlock()
		return
	}
	sess.order.Status = domain.StatusExpired
	sess.mu.Unlock()

	ctx := context.Background()
	warning := fmt.Sprintf("⚠️ Tempo limite de %d minutos atingido. O canal será excluído em %d minuto(s).",
		int(s.cfg.OrderTimeout.Minutes()), int(s.cfg.WarnGrace.Minutes()))
	if err := s.transport.SendChannelMessage(ctx, channelID, warning); err != nil {
		s.logf("warn expiring channel %s: %v", channelID, err)
	}

	sess.mu.Lock()
	sess.deleteTimer = time.AfterFunc(s.cfg.WarnGrace, func() {
		s.drop(channelID)
		if err := s.transport.DeleteChannel(context.Background(), channelID, "tempo limite de pagamento atingido"); err != nil {
			s.logf("delete expired channel %s: %v", channelID, err)
		}
	})
	sess.mu.Unlock()
}

func (s *Service) authorizeBuyer(o *domain.Order, actorID string) error {
	if actorID != o.BuyerID && actorID != s.cfg.OwnerID {
		return domain.ErrNotBuyer
	}
	return nil
}

func (s *Service) lookup(channelID string) (*session, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[channelID]
	return sess, ok
}

func (s *Service) drop(channelID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, channelID)
}

func (sess *session) stopTimers() {
	if sess.warnTimer != nil {
		sess.warnTimer.Stop()
	}
	if sess.deleteTimer != nil {
		sess.deleteTimer.Stop()
	}
}

func (s *Service) logf(format string, args ...interface{}) {
	if s.logger != nil {
		s.logger.Printf(format, args...)
	}
}

// IsProviderError reports whether err came from the payment provider, i.e.
// the buyer may simply retry.
func IsProviderError(err error) bool {
	var perr *lightning.ProviderError
	return errors.As(err, &perr)
}
