package plugin

import (
	"context"
	"fmt"
	"strings"
	"time"

	"trademan/pkg/model"
	"trademan/pkg/store"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type TradeParams struct {
	Market   string
	NativeID string
	Side     string // buy, sell
	Price    decimal.Decimal
	Amount   decimal.Decimal
	Fee      decimal.Decimal
	FeeSide  string // base, quote; quote when empty
	Time     time.Time
}

// AddTrade inserts the trade "<exchange>|<NativeID>" once. It returns nil when the trade
// was already recorded.
func (b *Base) AddTrade(ctx context.Context, p TradeParams) (trade *model.Trade, err error) {
	if p.Side != model.TradeSideBuy && p.Side != model.TradeSideSell {
		return nil, fmt.Errorf("%w: trade side %q", ErrInvariant, p.Side)
	}
	if p.FeeSide == "" {
		p.FeeSide = model.FeeSideQuote
	}
	if p.Time.IsZero() {
		p.Time = time.Now()
	}
	tradeID := model.TradeID(b.name, p.NativeID)

	err = store.Transaction(ctx, b.DB, func(tx *gorm.DB) error {
		var n int64
		if err := tx.Model(&model.Trade{}).Where("trade_id = ?", tradeID).Count(&n).Error; err != nil {
			return err
		}
		if n > 0 {
			b.Logger.Debugf("trade %s already known", tradeID)
			return nil
		}
		trade = &model.Trade{
			TradeID:  tradeID,
			Exchange: b.name,
			Market:   strings.ToUpper(p.Market),
			Side:     p.Side,
			Amount:   p.Amount,
			Price:    p.Price,
			Fee:      p.Fee,
			FeeSide:  p.FeeSide,
			Time:     p.Time.UTC(),
		}
		return tx.Create(trade).Error
	})
	if err != nil {
		trade = nil
	}
	return
}

// WalletParams describes a credit or a debit reported by an exchange.
type WalletParams struct {
	RefID    string
	Amount   decimal.Decimal
	Fee      decimal.Decimal // debits only
	Currency string
	Network  string
	Status   string
	Address  string
	Time     time.Time
}

func (p *WalletParams) normalize() {
	p.Currency = strings.ToUpper(p.Currency)
	if p.Status == "" {
		p.Status = model.WalletStatusUnconfirmed
	}
	if p.Time.IsZero() {
		p.Time = time.Now()
	}
	p.Time = p.Time.UTC()
}

// AddCredit records a credit once per RefID; a known credit only has its status updated.
func (b *Base) AddCredit(ctx context.Context, p WalletParams) (credit *model.Credit, err error) {
	p.normalize()
	err = store.Transaction(ctx, b.DB, func(tx *gorm.DB) error {
		user, err := b.managerUser(tx)
		if err != nil {
			return err
		}

		c := model.Credit{}
		res := tx.Where("reference = ? AND ref_id = ?", b.name, p.RefID).Limit(1).Find(&c)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected > 0 {
			credit = &c
			if c.Status == p.Status {
				return nil
			}
			c.Status = p.Status
			return tx.Model(&c).Update("status", p.Status).Error
		}

		credit = &model.Credit{
			RefID:     p.RefID,
			Reference: b.name,
			Amount:    p.Amount,
			Currency:  p.Currency,
			Network:   p.Network,
			Status:    p.Status,
			Address:   p.Address,
			UserID:    user.ID,
			Time:      p.Time,
		}
		return tx.Create(credit).Error
	})
	if err != nil {
		credit = nil
	}
	return
}

// AddDebit records a debit once per RefID; a known debit only has its status updated.
func (b *Base) AddDebit(ctx context.Context, p WalletParams) (debit *model.Debit, err error) {
	p.normalize()
	err = store.Transaction(ctx, b.DB, func(tx *gorm.DB) error {
		user, err := b.managerUser(tx)
		if err != nil {
			return err
		}

		d := model.Debit{}
		res := tx.Where("reference = ? AND ref_id = ?", b.name, p.RefID).Limit(1).Find(&d)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected > 0 {
			debit = &d
			if d.Status == p.Status {
				return nil
			}
			d.Status = p.Status
			return tx.Model(&d).Update("status", p.Status).Error
		}

		debit = &model.Debit{
			RefID:     p.RefID,
			Reference: b.name,
			Amount:    p.Amount,
			Fee:       p.Fee,
			Currency:  p.Currency,
			Network:   p.Network,
			Status:    p.Status,
			Address:   p.Address,
			UserID:    user.ID,
			Time:      p.Time,
		}
		return tx.Create(debit).Error
	})
	if err != nil {
		debit = nil
	}
	return
}

// UpdateBalance sets the manager user's balance of currency. A nil available means
// everything is available.
func (b *Base) UpdateBalance(ctx context.Context, currency string, total decimal.Decimal, available *decimal.Decimal, reference string) error {
	avail := total
	if available != nil {
		avail = *available
	}
	currency = strings.ToUpper(currency)
	if avail.GreaterThan(total) {
		return fmt.Errorf("%w: %s available %s above total %s", ErrInvariant, currency, avail, total)
	}

	return store.Transaction(ctx, b.DB, func(tx *gorm.DB) error {
		user, err := b.managerUser(tx)
		if err != nil {
			return err
		}

		bal := model.Balance{}
		res := tx.Where("user_id = ? AND currency = ?", user.ID, currency).Limit(1).Find(&bal)
		if res.Error != nil {
			return res.Error
		}
		now := time.Now().UTC()
		if res.RowsAffected == 0 {
			bal = model.Balance{
				UserID:    user.ID,
				Currency:  currency,
				Total:     total,
				Available: avail,
				Reference: reference,
				Time:      now,
			}
			return tx.Create(&bal).Error
		}
		return tx.Model(&bal).Updates(map[string]interface{}{
			"total":     total,
			"available": avail,
			"reference": reference,
			"time":      now,
		}).Error
	})
}
