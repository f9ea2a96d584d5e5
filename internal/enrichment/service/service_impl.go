package service

import (
	"context"
	"errors"

	"github.com/billgate/purchasegw/internal/bus"
	catalogdomain "github.com/billgate/purchasegw/internal/catalog/domain"
	enrichmentdomain "github.com/billgate/purchasegw/internal/enrichment/domain"
	paymenttemplatedomain "github.com/billgate/purchasegw/internal/paymenttemplate/domain"
	purchasedomain "github.com/billgate/purchasegw/internal/purchase/domain"
	retrydomain "github.com/billgate/purchasegw/internal/retry/domain"
	transactiondomain "github.com/billgate/purchasegw/internal/transaction/domain"
	"github.com/billgate/purchasegw/internal/transaction/translator"
	"github.com/billgate/purchasegw/pkg/log/ctxlogger"
	"github.com/bwmarrin/snowflake"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

type Params struct {
	fx.In

	Log            *zap.Logger
	GenID          *snowflake.Node
	TransactionSvc transactiondomain.Service
	Bundles        catalogdomain.BundleRepository
	Sites          catalogdomain.ConfigService
	Templates      paymenttemplatedomain.Service
	Bus            bus.ServiceBus
	Ledger         retrydomain.Repository
}

// Service builds and delivers integration events from purchase outcomes.
// Both projections share the same lookup helpers; only the assembly differs.
type Service struct {
	log            *zap.Logger
	genID          *snowflake.Node
	transactionSvc transactiondomain.Service
	bundles        catalogdomain.BundleRepository
	sites          catalogdomain.ConfigService
	templates      paymenttemplatedomain.Service
	bus            bus.ServiceBus
	ledger         retrydomain.Repository
}

func NewService(p Params) *Service {
	return &Service{
		log:            p.Log.Named("enrichment.service"),
		genID:          p.GenID,
		transactionSvc: p.TransactionSvc,
		bundles:        p.Bundles,
		sites:          p.Sites,
		templates:      p.Templates,
		bus:            p.Bus,
		ledger:         p.Ledger,
	}
}

// ProcessPurchaseEvent builds and publishes the multi-item legacy import
// projection for one purchase outcome. Business no-ops complete successfully
// with zero events.
func (s *Service) ProcessPurchaseEvent(ctx context.Context, ev *purchasedomain.OutcomeEvent) error {
	event, err := s.BuildPurchaseEvent(ctx, ev)
	if err != nil {
		return err
	}
	if event == nil {
		return nil
	}
	return s.publish(ctx, ev.AggregateID, event, ev.MemberID)
}

// ProcessEnrichedEvent builds and publishes the single member-profile
// projection for one purchase outcome.
func (s *Service) ProcessEnrichedEvent(ctx context.Context, ev *purchasedomain.OutcomeEvent) error {
	event, err := s.BuildEnrichedEvent(ctx, ev)
	if err != nil {
		return err
	}
	if event == nil {
		return nil
	}
	return s.publish(ctx, ev.AggregateID, event, ev.MemberID)
}

// BuildPurchaseEvent assembles the legacy import projection. A nil event with
// a nil error means there is nothing to import.
func (s *Service) BuildPurchaseEvent(ctx context.Context, ev *purchasedomain.OutcomeEvent) (*enrichmentdomain.PurchaseIntegrationEvent, error) {
	log := ctxlogger.WithContext(ctx, s.log).With(zap.String("aggregate_id", ev.AggregateID))

	last := ev.LastTransaction()
	if last == nil {
		log.Info("no transaction on main item, nothing to import")
		return nil, nil
	}
	if last.State == purchasedomain.TransactionStateAborted {
		log.Info("main transaction aborted, nothing to import")
		return nil, nil
	}

	mainTx, err := s.transactionSvc.GetTransactionDataBy(ctx, last.TransactionID, ev.SessionID)
	if err != nil {
		return nil, err
	}
	site, err := s.sites.GetSite(ctx, ev.SiteID)
	if err != nil {
		return nil, err
	}
	bundle, err := s.bundles.FindByBundleAndAddon(ctx, ev.BundleID, ev.AddOnID)
	if err != nil {
		return nil, err
	}

	usedTemplate := ev.UsedPaymentTemplate()
	var storedFields map[string]string
	if usedTemplate {
		template, err := s.templates.Retrieve(ctx, ev.PaymentTemplateID, ev.SessionID)
		if err != nil {
			return nil, err
		}
		storedFields = template.BillerFields
	}

	mainItem := buildItem(itemInput{
		siteID:         ev.SiteID,
		site:           site,
		bundle:         bundle,
		tx:             mainTx,
		state:          last.State,
		subscriptionID: ev.SubscriptionID,
		nsf:            overrideNSF(ev.IsNSF, usedTemplate),
		importedByAPI:  ev.ImportedByAPI,
		crossSale:      false,
	})
	if usedTemplate {
		// Stored-card purchases carry the vault's biller identity, not the
		// transaction's.
		mainItem.BillerFields = storedFields
	} else {
		mainItem.BillerFields = templateFields(log, mainTx)
	}

	items := []enrichmentdomain.PurchaseItem{mainItem}
	for _, cross := range ev.CrossSalePurchaseData {
		crossLast := cross.LastTransaction()
		if crossLast == nil {
			log.Info("cross sale skipped, never executed", zap.String("bundle_id", cross.BundleID))
			continue
		}
		if crossLast.State == purchasedomain.TransactionStateAborted {
			log.Info("cross sale skipped, transaction aborted", zap.String("bundle_id", cross.BundleID))
			continue
		}

		crossTx, err := s.transactionSvc.GetTransactionDataBy(ctx, crossLast.TransactionID, ev.SessionID)
		if err != nil {
			return nil, err
		}
		crossBundle, err := s.bundles.FindByBundleAndAddon(ctx, cross.BundleID, cross.AddOnID)
		if err != nil {
			return nil, err
		}

		crossSiteID := cross.SiteID
		crossSite := site
		if crossSiteID == "" {
			crossSiteID = ev.SiteID
		} else if crossSiteID != ev.SiteID {
			// Only the main site is resolved; a foreign-site cross sale
			// keeps its id and ships without a name.
			crossSite = nil
		}
		// Cross sales ride on the main subscription; they are never
		// independent subscriptions.
		items = append(items, buildItem(itemInput{
			siteID:         crossSiteID,
			site:           crossSite,
			bundle:         crossBundle,
			tx:             crossTx,
			state:          crossLast.State,
			subscriptionID: ev.SubscriptionID,
			nsf:            overrideNSF(cross.IsNSF, usedTemplate),
			importedByAPI:  ev.ImportedByAPI,
			crossSale:      true,
		}))
	}

	return &enrichmentdomain.PurchaseIntegrationEvent{
		AggregateID: ev.AggregateID,
		SessionID:   ev.SessionID,
		MemberID:    ev.MemberID,
		OccurredOn:  ev.OccurredOn,
		Items:       items,
	}, nil
}

// BuildEnrichedEvent assembles the member-profile projection: a rebill event
// for Rocketgate rebill transactions, the generic enriched event otherwise.
// A nil event with a nil error means there is nothing to enrich.
func (s *Service) BuildEnrichedEvent(ctx context.Context, ev *purchasedomain.OutcomeEvent) (bus.Event, error) {
	log := ctxlogger.WithContext(ctx, s.log).With(zap.String("aggregate_id", ev.AggregateID))

	if ev.SubscriptionID == "" {
		log.Info("no subscription created, nothing to enrich")
		return nil, nil
	}
	last := ev.LastTransaction()
	if last == nil {
		log.Info("no transaction on main item, nothing to enrich")
		return nil, nil
	}

	tx, err := s.transactionSvc.GetTransactionDataBy(ctx, last.TransactionID, ev.SessionID)
	if err != nil {
		return nil, err
	}
	base := tx.Base()

	if base.BillerName == transactiondomain.BillerRocketgate && base.IsRebill() {
		switch base.Status {
		case transactiondomain.StatusAborted:
			log.Info("rebill aborted, nothing to enrich")
			return nil, nil
		case transactiondomain.StatusDeclined:
			return s.rebillEvent(ev, base, false), nil
		default:
			return s.rebillEvent(ev, base, true), nil
		}
	}

	bundleIDs := []string{ev.BundleID}
	addOnIDs := []string{ev.AddOnID}
	for _, cross := range ev.CrossSalePurchaseData {
		bundleIDs = append(bundleIDs, cross.BundleID)
		addOnIDs = append(addOnIDs, cross.AddOnID)
	}
	bundles, err := s.bundles.FindByIds(ctx, bundleIDs, addOnIDs)
	if err != nil {
		return nil, err
	}
	site, err := s.sites.GetSite(ctx, ev.SiteID)
	if err != nil {
		return nil, err
	}

	items := []enrichmentdomain.EnrichedItem{enrichedItem(ev.BundleID, ev.AddOnID, ev.SubscriptionID, ev.IsNSF, false, bundles)}
	for _, cross := range ev.CrossSalePurchaseData {
		items = append(items, enrichedItem(cross.BundleID, cross.AddOnID, cross.SubscriptionID, cross.IsNSF, true, bundles))
	}

	return &enrichmentdomain.PurchaseProcessedEnriched{
		AggregateID:    ev.AggregateID,
		SessionID:      ev.SessionID,
		MemberID:       ev.MemberID,
		SubscriptionID: ev.SubscriptionID,
		TransactionID:  base.TransactionID,
		BillerName:     base.BillerName,
		Status:         base.Status,
		Amount:         base.Amount,
		OccurredOn:     ev.OccurredOn,
		Site:           site,
		Items:          items,
	}, nil
}

// publish hands the event to the bus and records a ledger row when delivery
// fails. The original error always propagates so the transport can redeliver.
func (s *Service) publish(ctx context.Context, aggregateID string, event bus.Event, key string) error {
	err := s.bus.Publish(ctx, event, key)
	if err == nil {
		return nil
	}

	row := &retrydomain.FailedEventPublish{
		ID:          s.genID.Generate(),
		AggregateID: aggregateID,
		EventType:   event.EventType(),
	}
	if createErr := s.ledger.Create(ctx, row); createErr != nil {
		ctxlogger.WithContext(ctx, s.log).Error("failed to record publish failure",
			zap.String("aggregate_id", aggregateID),
			zap.Error(createErr),
		)
		return errors.Join(err, createErr)
	}
	return err
}

func (s *Service) rebillEvent(ev *purchasedomain.OutcomeEvent, base transactiondomain.BaseResult, successful bool) bus.Event {
	return &enrichmentdomain.RebillEvent{
		AggregateID:    ev.AggregateID,
		SessionID:      ev.SessionID,
		MemberID:       ev.MemberID,
		SubscriptionID: ev.SubscriptionID,
		TransactionID:  base.TransactionID,
		BillerName:     base.BillerName,
		Status:         base.Status,
		Amount:         base.Amount,
		RebillAmount:   base.RebillAmount,
		OccurredOn:     ev.OccurredOn,
		Successful:     successful,
	}
}

type itemInput struct {
	siteID         string
	site           *catalogdomain.Site
	bundle         *catalogdomain.Bundle
	tx             transactiondomain.Result
	state          string
	subscriptionID string
	nsf            bool
	importedByAPI  bool
	crossSale      bool
}

func buildItem(in itemInput) enrichmentdomain.PurchaseItem {
	base := in.tx.Base()
	item := enrichmentdomain.PurchaseItem{
		SiteID:            in.siteID,
		BundleID:          in.bundle.BundleID,
		AddOnID:           in.bundle.AddOnID,
		AddOnType:         in.bundle.AddOnType,
		SubscriptionID:    in.subscriptionID,
		TransactionID:     base.TransactionID,
		BillerName:        base.BillerName,
		Status:            in.state,
		Amount:            base.Amount,
		RebillAmount:      base.RebillAmount,
		CurrencyCode:      base.CurrencyCode,
		IsNSF:             in.nsf,
		SecuredWithThreeD: base.SecuredWithThreeD,
		ImportedByAPI:     in.importedByAPI,
		IsCrossSale:       in.crossSale,
		Member:            base.Member,
	}
	if in.site != nil {
		item.SiteName = in.site.Name
	}
	return item
}

func enrichedItem(bundleID, addOnID, subscriptionID string, nsf, crossSale bool, bundles map[string]catalogdomain.Bundle) enrichmentdomain.EnrichedItem {
	item := enrichmentdomain.EnrichedItem{
		BundleID:       bundleID,
		AddOnID:        addOnID,
		SubscriptionID: subscriptionID,
		IsNSF:          nsf,
		IsCrossSale:    crossSale,
	}
	if bundle, ok := bundles[bundleID]; ok {
		item.AddOnType = bundle.AddOnType
	}
	return item
}

// overrideNSF forces NSF off for stored-card purchases; template rebills never
// carry the legacy NSF indicator forward.
func overrideNSF(nsf bool, usedTemplate bool) bool {
	if usedTemplate {
		return false
	}
	return nsf
}

// templateFields extracts stored-payment fields for new payment methods.
// Families without template support only log; the import itself proceeds.
func templateFields(log *zap.Logger, tx transactiondomain.Result) map[string]string {
	if transactiondomain.IsEmpty(tx) {
		return nil
	}
	fields, err := translator.BillerFields(tx)
	if err != nil {
		log.Debug("no payment template fields for transaction",
			zap.String("biller", tx.Base().BillerName),
			zap.Error(err),
		)
		return nil
	}
	return fields
}
