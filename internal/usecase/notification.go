package usecase

import (
	"fmt"
	"time"

	"stock-screener-backend/internal/domain"
)

// notifyBuySignals sends FCM notifications for tickers that came out of a
// scan with a BUY signal. Each ticker is alerted at most once per cooldown
// window so a stock that keeps scoring high across consecutive scans does
// not spam every device.
func (uc *ScreenerUsecase) notifyBuySignals(results []domain.AnalysisResult) {
	if uc.fcmClient == nil || !uc.fcmClient.IsEnabled() {
		return // FCM not configured
	}

	tokens := uc.tokenRepo.GetAllTokens()
	if len(tokens) == 0 {
		return // No registered devices
	}

	now := time.Now()

	for _, res := range results {
		if res.Signal != domain.SignalBuy {
			continue
		}

		// Check cooldown
		uc.mu.RLock()
		lastNotified, exists := uc.notified[res.Ticker]
		uc.mu.RUnlock()

		if exists && now.Sub(lastNotified) < uc.cfg.Cooldown {
			continue // Skip, still in cooldown
		}

		title := fmt.Sprintf("📈 %s BUY signal", res.Ticker)
		body := fmt.Sprintf("Score: %.1f | Tech: %d/100 | Price: $%.2f",
			res.CompositeScore, res.TechScore, res.Price)

		data := map[string]string{
			"ticker": res.Ticker,
			"signal": string(res.Signal),
			"score":  fmt.Sprintf("%.2f", res.CompositeScore),
			"price":  fmt.Sprintf("%.2f", res.Price),
			"rank":   fmt.Sprintf("%d", res.Rank),
		}

		// Send to all registered tokens
		err := uc.fcmClient.SendMulticast(tokens, title, body, data)
		if err != nil {
			uc.log.Error().Err(err).Str("ticker", res.Ticker).Msg("Error sending notification")
		} else {
			uc.log.Info().Str("ticker", res.Ticker).Int("devices", len(tokens)).Msg("Sent buy notification")

			// Update notified timestamp
			uc.mu.Lock()
			uc.notified[res.Ticker] = now
			uc.mu.Unlock()
		}
	}

	// Cleanup entries old enough that the cooldown no longer applies
	uc.mu.Lock()
	for ticker, timestamp := range uc.notified {
		if now.Sub(timestamp) > uc.cfg.Cooldown*2 {
			delete(uc.notified, ticker)
		}
	}
	uc.mu.Unlock()
}
