package demo

import (
	"context"
	"fmt"
	"io"
	"time"

	"restaurant-api/logging"
	"restaurant-api/models"

	"gorm.io/gorm"
)

// PurgeExpiredUsers deletes demo users whose expiry has passed, with everything
// that belongs to them, and returns how many users were removed.
func PurgeExpiredUsers(ctx context.Context, db *gorm.DB, now time.Time) (int64, error) {
	var ids []uint
	err := db.WithContext(ctx).Model(&models.User{}).
		Where("is_demo = ? AND demo_expires_at IS NOT NULL AND demo_expires_at <= ?", true, now.UTC()).
		Pluck("id", &ids).Error
	if err != nil {
		return 0, fmt.Errorf("find expired demo users: %w", err)
	}
	if len(ids) == 0 {
		return 0, nil
	}

	err = db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		orderIDs := tx.Model(&models.Order{}).Select("id").Where("user_id IN ?", ids)
		steps := []*gorm.DB{
			tx.Where("user_id IN ?", ids).Delete(&models.Cart{}),
			tx.Where("order_id IN (?)", orderIDs).Delete(&models.OrderItem{}),
			tx.Where("user_id IN ?", ids).Delete(&models.Order{}),
			tx.Model(&models.Order{}).Where("delivery_crew_id IN ?", ids).Update("delivery_crew_id", nil),
			tx.Where("user_id IN ?", ids).Delete(&models.BlacklistedToken{}),
			tx.Exec("DELETE FROM user_groups WHERE user_id IN ?", ids),
			tx.Where("id IN ?", ids).Delete(&models.User{}),
		}
		for _, step := range steps {
			if step.Error != nil {
				return step.Error
			}
		}
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("purge expired demo users: %w", err)
	}
	return int64(len(ids)), nil
}

// PurgeCounts reports the demo rows removed (or, on a dry run, found) per table
type PurgeCounts struct {
	Orders     int64
	CartLines  int64
	MenuItems  int64
	Categories int64
}

// PurgeRestaurantData removes every demo row from the restaurant tables in
// dependency order: orders, cart lines, menu items, then categories. With
// dryRun set it only counts. Progress lines are written to out.
func PurgeRestaurantData(ctx context.Context, db *gorm.DB, dryRun bool, out io.Writer) (PurgeCounts, error) {
	var counts PurgeCounts
	fmt.Fprintln(out, "Starting demo purge (Orders -> Carts -> MenuItems -> Categories)...")

	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		tables := []struct {
			label string
			model any
			count *int64
			purge func(tx *gorm.DB) error
		}{
			{"Orders", &models.Order{}, &counts.Orders, purgeDemoOrders},
			{"Cart lines", &models.Cart{}, &counts.CartLines, func(tx *gorm.DB) error {
				return tx.Where("is_demo = ?", true).Delete(&models.Cart{}).Error
			}},
			{"MenuItems", &models.MenuItem{}, &counts.MenuItems, purgeDemoMenuItems},
			{"Categories", &models.Category{}, &counts.Categories, func(tx *gorm.DB) error {
				return tx.Where("is_demo = ?", true).Delete(&models.Category{}).Error
			}},
		}
		for _, t := range tables {
			if err := tx.Model(t.model).Where("is_demo = ?", true).Count(t.count).Error; err != nil {
				return fmt.Errorf("count demo %s: %w", t.label, err)
			}
			if dryRun {
				fmt.Fprintf(out, "[DRY] %s: %d would be deleted\n", t.label, *t.count)
				continue
			}
			if err := t.purge(tx); err != nil {
				return fmt.Errorf("delete demo %s: %w", t.label, err)
			}
			fmt.Fprintf(out, "%s deleted: %d\n", t.label, *t.count)
		}
		return nil
	})
	if err != nil {
		return counts, err
	}
	fmt.Fprintln(out, "Demo purge complete.")
	return counts, nil
}

func purgeDemoOrders(tx *gorm.DB) error {
	demoOrders := tx.Model(&models.Order{}).Select("id").Where("is_demo = ?", true)
	if err := tx.Where("order_id IN (?)", demoOrders).Delete(&models.OrderItem{}).Error; err != nil {
		return err
	}
	return tx.Where("is_demo = ?", true).Delete(&models.Order{}).Error
}

// purgeDemoMenuItems also drops any cart lines still holding a demo item and
// clears order item references to it.
func purgeDemoMenuItems(tx *gorm.DB) error {
	demoItems := tx.Model(&models.MenuItem{}).Select("id").Where("is_demo = ?", true)
	if err := tx.Where("menuitem_id IN (?)", demoItems).Delete(&models.Cart{}).Error; err != nil {
		return err
	}
	if err := tx.Model(&models.OrderItem{}).Where("menuitem_id IN (?)", demoItems).
		Update("menuitem_id", nil).Error; err != nil {
		return err
	}
	return tx.Where("is_demo = ?", true).Delete(&models.MenuItem{}).Error
}

// RunJanitor purges expired demo users every interval until ctx is cancelled.
func RunJanitor(ctx context.Context, db *gorm.DB, interval time.Duration, logger *logging.Logger) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case now := <-ticker.C:
			n, err := PurgeExpiredUsers(ctx, db, now)
			if err != nil {
				logger.Error("demo janitor", "error", err)
				continue
			}
			if n > 0 {
				logger.Info("purged expired demo users", "count", n)
			}
		}
	}
}
