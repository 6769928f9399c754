package pgrepo

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/jamongadejoa28/sassmall-sub003/internal/domain"
	"github.com/jamongadejoa28/sassmall-sub003/internal/repository/repoargs"
	"github.com/jamongadejoa28/sassmall-sub003/pkg/uow"
)

const orderColumns = `o.id, o.created_at, o.updated_at, o.ordered_at, o.order_number, o.user_id, o.status,
	o.shipping_address, o.payment_method, o.subtotal, o.shipping_fee, o.total_amount, o.memo,
	COALESCE((SELECT p.payment_key FROM payments p
		WHERE p.order_number = o.order_number AND p.status IN ('approved', 'refunded')
		ORDER BY p.id DESC LIMIT 1), '')`

const orderItemColumns = `id, order_id, product_id, product_name, price, quantity, line_total, image_url, options`

type OrderRepository struct {
	conn uow.DBTX
}

func NewOrderRepository(conn uow.DBTX) *OrderRepository {
	return &OrderRepository{conn: conn}
}

// Create сохраняет заказ вместе с позициями. Должен выполняться внутри транзакции UOW.
// Дубликат номера заказа или товара в заказе возвращает domain.ErrDuplicateKey.
func (r *OrderRepository) Create(ctx context.Context, order *domain.Order) (*domain.Order, error) {
	created := *order
	created.Items = make([]domain.OrderItem, len(order.Items))
	copy(created.Items, order.Items)

	row := r.conn.QueryRow(ctx, `
		INSERT INTO orders (created_at, updated_at, ordered_at, order_number, user_id, status, shipping_address,
		                    payment_method, subtotal, shipping_fee, total_amount, memo)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING id`,
		order.CreatedAt, order.UpdatedAt, order.OrderedAt, order.OrderNumber, order.UserID, order.Status,
		order.ShippingAddress, order.PaymentMethod, order.Subtotal, order.ShippingFee, order.TotalAmount, order.Memo,
	)
	if err := row.Scan(&created.ID); err != nil {
		return nil, convertErr(err, "creating order `%s`", order.OrderNumber)
	}

	batch := new(pgx.Batch)
	for _, item := range created.Items {
		batch.Queue(`
			INSERT INTO order_items (order_id, product_id, product_name, price, quantity, line_total, image_url, options)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
			RETURNING id`,
			created.ID, item.ProductID, item.ProductName, item.Price, item.Quantity, item.LineTotal, item.ImageURL,
			item.Options,
		)
	}
	br := r.conn.SendBatch(ctx, batch)
	for i := range created.Items {
		if err := br.QueryRow().Scan(&created.Items[i].ID); err != nil {
			_ = br.Close()
			return nil, convertErr(err, "creating item for product %d of order `%s`",
				created.Items[i].ProductID, order.OrderNumber)
		}
		created.Items[i].OrderID = created.ID
	}
	if err := br.Close(); err != nil {
		return nil, convertErr(err, "creating items of order `%s`", order.OrderNumber)
	}
	return &created, nil
}

func (r *OrderRepository) FindByID(ctx context.Context, id int64) (*domain.Order, error) {
	return r.findOne(ctx, fmt.Sprintf("finding order %d", id),
		`SELECT `+orderColumns+` FROM orders o WHERE o.id = $1`, id)
}

// FindByIDForUpdate блокирует строку заказа до конца транзакции.
func (r *OrderRepository) FindByIDForUpdate(ctx context.Context, id int64) (*domain.Order, error) {
	return r.findOne(ctx, fmt.Sprintf("finding order %d for update", id),
		`SELECT `+orderColumns+` FROM orders o WHERE o.id = $1 FOR UPDATE OF o`, id)
}

func (r *OrderRepository) FindByOrderNumber(ctx context.Context, number string) (*domain.Order, error) {
	return r.findOne(ctx, fmt.Sprintf("finding order `%s`", number),
		`SELECT `+orderColumns+` FROM orders o WHERE o.order_number = $1`, number)
}

func (r *OrderRepository) findOne(ctx context.Context, errMsg, query string, args ...any) (*domain.Order, error) {
	order, err := scanOrder(r.conn.QueryRow(ctx, query, args...))
	if err != nil {
		return nil, convertErr(err, "%s", errMsg)
	}
	items, itemsErr := r.loadItems(ctx, []int64{order.ID})
	if itemsErr != nil {
		return nil, itemsErr
	}
	order.Items = items[order.ID]
	return order, nil
}

// UpdateStatus обновляет статус заказа, только если сохраненный статус равен args.Expected. Иначе возвращает
// domain.ErrStaleState. Допустимость перехода проверяет агрегат, репозиторий таблицу переходов не знает.
func (r *OrderRepository) UpdateStatus(ctx context.Context, args repoargs.UpdateOrderStatus) error {
	tag, err := r.conn.Exec(ctx, `
		UPDATE orders SET status = $3, updated_at = $4
		WHERE id = $1 AND status = $2`,
		args.ID, args.Expected, args.Status, args.UpdatedAt,
	)
	if err != nil {
		return convertErr(err, "updating order %d status to %s", args.ID, args.Status)
	}
	if tag.RowsAffected() == 0 {
		return staleStateErr("updating order %d status from %s", args.ID, args.Expected)
	}
	return nil
}

// ListByUser возвращает заказы пользователя, начиная с последних.
func (r *OrderRepository) ListByUser(ctx context.Context, args repoargs.ListUserOrders) ([]domain.Order, error) {
	limit, limitErr := safeConvertUintToInt32(args.Limit)
	if limitErr != nil {
		return nil, convertErr(limitErr, "converting limit to int32")
	}
	offset, offsetErr := safeConvertUintToInt32(args.Offset)
	if offsetErr != nil {
		return nil, convertErr(offsetErr, "converting offset to int32")
	}
	rows, err := r.conn.Query(ctx, `
		SELECT `+orderColumns+` FROM orders o
		WHERE o.user_id = $1 AND ($2 = '' OR o.status = $2)
		ORDER BY o.ordered_at DESC, o.id DESC
		LIMIT $3 OFFSET $4`,
		args.UserID, string(args.Status), limit, offset,
	)
	if err != nil {
		return nil, convertErr(err, "listing orders of user %d", args.UserID)
	}
	orders, _, scanErr := r.collect(ctx, rows, false)
	if scanErr != nil {
		return nil, convertErr(scanErr, "listing orders of user %d", args.UserID)
	}
	return orders, nil
}

// Search административный поиск. Возвращает страницу заказов и общее количество найденных.
func (r *OrderRepository) Search(ctx context.Context, filter repoargs.OrderSearch) ([]domain.Order, int64, error) {
	var (
		conds []string
		args  []any
	)
	addCond := func(cond string, arg any) {
		args = append(args, arg)
		conds = append(conds, fmt.Sprintf(cond, len(args)))
	}
	if filter.Status != "" {
		addCond("o.status = $%d", filter.Status)
	}
	if filter.UserID != 0 {
		addCond("o.user_id = $%d", filter.UserID)
	}
	if filter.OrderNumberPrefix != "" {
		addCond("o.order_number LIKE $%d", escapeLike(filter.OrderNumberPrefix)+"%")
	}
	if filter.From != nil {
		addCond("o.ordered_at >= $%d", *filter.From)
	}
	if filter.To != nil {
		addCond("o.ordered_at < $%d", *filter.To)
	}
	where := ""
	if len(conds) > 0 {
		where = "WHERE " + strings.Join(conds, " AND ")
	}

	limit, limitErr := safeConvertUintToInt32(filter.Limit)
	if limitErr != nil {
		return nil, 0, convertErr(limitErr, "converting limit to int32")
	}
	offset, offsetErr := safeConvertUintToInt32(filter.Offset)
	if offsetErr != nil {
		return nil, 0, convertErr(offsetErr, "converting offset to int32")
	}
	args = append(args, limit, offset)

	query := fmt.Sprintf(`
		SELECT %s, COUNT(*) OVER () FROM orders o %s
		ORDER BY o.ordered_at DESC, o.id DESC
		LIMIT $%d OFFSET $%d`, orderColumns, where, len(args)-1, len(args))

	rows, err := r.conn.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, convertErr(err, "searching orders")
	}
	orders, total, scanErr := r.collect(ctx, rows, true)
	if scanErr != nil {
		return nil, 0, convertErr(scanErr, "searching orders")
	}
	return orders, total, nil
}

// Statistics количество и выручка заказов по статусам за период [from, to).
func (r *OrderRepository) Statistics(ctx context.Context, from, to time.Time) ([]repoargs.StatusStatistics, error) {
	rows, err := r.conn.Query(ctx, `
		SELECT status, COUNT(*), COALESCE(SUM(total_amount), 0)
		FROM orders
		WHERE ordered_at >= $1 AND ordered_at < $2
		GROUP BY status
		ORDER BY status`, from, to)
	if err != nil {
		return nil, convertErr(err, "collecting order statistics")
	}
	defer rows.Close()

	var stats []repoargs.StatusStatistics
	for rows.Next() {
		var st repoargs.StatusStatistics
		if scanErr := rows.Scan(&st.Status, &st.Count, &st.Revenue); scanErr != nil {
			return nil, convertErr(scanErr, "scanning order statistics")
		}
		stats = append(stats, st)
	}
	if rowsErr := rows.Err(); rowsErr != nil {
		return nil, convertErr(rowsErr, "collecting order statistics")
	}
	return stats, nil
}

// collect сканирует заказы из rows и догружает их позиции одним запросом. withTotal - в каждой строке
// последней колонкой идет общее количество.
func (r *OrderRepository) collect(ctx context.Context, rows pgx.Rows, withTotal bool) ([]domain.Order, int64, error) {
	var (
		orders []domain.Order
		total  int64
	)
	for rows.Next() {
		var (
			order *domain.Order
			err   error
		)
		if withTotal {
			order, err = scanOrder(rows, &total)
		} else {
			order, err = scanOrder(rows)
		}
		if err != nil {
			rows.Close()
			return nil, 0, err
		}
		orders = append(orders, *order)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, 0, err //nolint:wrapcheck
	}
	if len(orders) == 0 {
		return orders, total, nil
	}

	ids := make([]int64, len(orders))
	for i, order := range orders {
		ids[i] = order.ID
	}
	items, itemsErr := r.loadItems(ctx, ids)
	if itemsErr != nil {
		return nil, 0, itemsErr
	}
	for i := range orders {
		orders[i].Items = items[orders[i].ID]
	}
	return orders, total, nil
}

func (r *OrderRepository) loadItems(ctx context.Context, orderIDs []int64) (map[int64][]domain.OrderItem, error) {
	rows, err := r.conn.Query(ctx,
		`SELECT `+orderItemColumns+` FROM order_items WHERE order_id = ANY($1) ORDER BY order_id, id`, orderIDs)
	if err != nil {
		return nil, convertErr(err, "loading order items")
	}
	defer rows.Close()

	items := make(map[int64][]domain.OrderItem, len(orderIDs))
	for rows.Next() {
		var item domain.OrderItem
		if scanErr := rows.Scan(
			&item.ID, &item.OrderID, &item.ProductID, &item.ProductName, &item.Price, &item.Quantity,
			&item.LineTotal, &item.ImageURL, &item.Options,
		); scanErr != nil {
			return nil, convertErr(scanErr, "scanning order item")
		}
		items[item.OrderID] = append(items[item.OrderID], item)
	}
	if rowsErr := rows.Err(); rowsErr != nil {
		return nil, convertErr(rowsErr, "loading order items")
	}
	return items, nil
}

func scanOrder(row rowScanner, extra ...any) (*domain.Order, error) {
	var order domain.Order
	dest := []any{
		&order.ID, &order.CreatedAt, &order.UpdatedAt, &order.OrderedAt, &order.OrderNumber, &order.UserID,
		&order.Status, &order.ShippingAddress, &order.PaymentMethod, &order.Subtotal, &order.ShippingFee,
		&order.TotalAmount, &order.Memo, &order.PaymentKey,
	}
	if err := row.Scan(append(dest, extra...)...); err != nil {
		return nil, err //nolint:wrapcheck
	}
	return &order, nil
}
