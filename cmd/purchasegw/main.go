package main

import (
	"os"
	"strconv"

	"github.com/billgate/purchasegw/internal/bus"
	"github.com/billgate/purchasegw/internal/catalog"
	"github.com/billgate/purchasegw/internal/clock"
	"github.com/billgate/purchasegw/internal/config"
	"github.com/billgate/purchasegw/internal/consumer"
	"github.com/billgate/purchasegw/internal/enrichment"
	"github.com/billgate/purchasegw/internal/migration"
	"github.com/billgate/purchasegw/internal/observability/logger"
	paymenttemplateclient "github.com/billgate/purchasegw/internal/paymenttemplate/client"
	paymenttemplatedomain "github.com/billgate/purchasegw/internal/paymenttemplate/domain"
	"github.com/billgate/purchasegw/internal/retry"
	"github.com/billgate/purchasegw/internal/server"
	transactionclient "github.com/billgate/purchasegw/internal/transaction/client"
	transactiondomain "github.com/billgate/purchasegw/internal/transaction/domain"
	"github.com/billgate/purchasegw/pkg/db"
	"github.com/billgate/purchasegw/pkg/telemetry"
	"github.com/bwmarrin/snowflake"
	"go.uber.org/fx"
)

func main() {
	app := fx.New(
		config.Module,
		logger.Module,
		telemetry.Module,
		fx.Provide(RegisterSnowflake),
		db.Module,
		migration.Module,
		clock.Module,

		bus.Module,
		catalog.Module,
		fx.Provide(
			transactionclient.New,
			func(c *transactionclient.Client) transactiondomain.Service { return c },
			paymenttemplateclient.New,
			func(c *paymenttemplateclient.Client) paymenttemplatedomain.Service { return c },
		),
		enrichment.Module,
		consumer.Module,
		retry.Module,
		server.Module,
	)

	app.Run()
}

// RegisterSnowflake builds the id generator node. The node id comes from the
// environment so replicas never collide.
func RegisterSnowflake() (*snowflake.Node, error) {
	nodeID := int64(1)
	if raw := os.Getenv("SNOWFLAKE_NODE_ID"); raw != "" {
		if parsed, err := strconv.ParseInt(raw, 10, 64); err == nil {
			nodeID = parsed
		}
	}
	return snowflake.NewNode(nodeID)
}
