package mocks

//go:generate mockgen -destination=./mock_datasource.go -package=mocks github.com/rxtech-lab/argo-intraday/internal/backtest/engine/engine_v1/datasource DataSource
//go:generate mockgen -destination=./mock_provider.go -package=mocks github.com/rxtech-lab/argo-intraday/pkg/marketdata/provider Provider
//go:generate mockgen -destination=./mock_notifier.go -package=mocks github.com/rxtech-lab/argo-intraday/internal/notify Notifier
