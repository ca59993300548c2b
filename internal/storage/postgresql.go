// Package storage реализует хранилище данных на основе PostgreSQL
// для учёта пользователей, их кредитов, бронирований занятий и покупок тарифов.
//
// Бронирование и отмена изменяют строку бронирования и баланс кредитов
// в одной транзакции: кредит не может быть списан без строки бронирования
// и наоборот. Уникальный индекс (user_uid, class_date, class_time) закрывает
// гонку двойного бронирования на уровне базы, а ограничение
// remaining_credits >= 0 — уход баланса в минус.
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"

	// Регистрация драйвера pgx для использования с database/sql.
	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/debozouker/zouk-studio/internal/models"
)

// Ошибки доменного уровня, которые хранилище возвращает вместо голых ошибок БД.
var (
	// ErrUserNotFound — пользователь с таким uid/username не существует.
	ErrUserNotFound = errors.New("user not found")
	// ErrUserExists — нарушена уникальность email или username при регистрации.
	ErrUserExists = errors.New("user already exists")
	// ErrBookingNotFound — бронирование для слота не найдено.
	ErrBookingNotFound = errors.New("booking not found")
	// ErrDuplicateBooking — у пользователя уже есть бронирование этого слота.
	ErrDuplicateBooking = errors.New("booking already exists")
	// ErrInsufficientCredit — на балансе нет кредитов для списания.
	ErrInsufficientCredit = errors.New("insufficient credit")
	// ErrPurchaseNotFound — покупка с таким id не существует.
	ErrPurchaseNotFound = errors.New("purchase not found")
)

// Storage инкапсулирует соединение с базой данных PostgreSQL
// и реализует методы работы с пользователями, бронированиями и покупками.
type Storage struct {
	DB *sql.DB
}

// New создаёт подключение к PostgreSQL.
func New(storageConnectionString string) (*Storage, error) {
	const op = "storage.New"

	db, err := sql.Open("pgx", storageConnectionString)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if err = db.PingContext(context.Background()); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &Storage{
		DB: db,
	}, nil
}

// CheckDatabaseReady проверяет готовность базы данных.
func (s *Storage) CheckDatabaseReady(ctx context.Context) error {
	var exists bool
	err := s.DB.QueryRowContext(ctx, `SELECT EXISTS (
        SELECT FROM information_schema.tables
        WHERE table_name = 'bookings'
    )`).Scan(&exists)
	if err != nil || !exists {
		return fmt.Errorf("required table bookings missing or query error: %w", err)
	}
	return nil
}

func pgErrCode(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code
	}
	return ""
}

// ===== USER METHODS =====

// RegisterUser сохраняет нового пользователя в базу данных и возвращает его uid.
func (s *Storage) RegisterUser(ctx context.Context, user models.User) (string, error) {
	const op = "storage.RegisterUser"
	select {
	case <-ctx.Done():
		return "", fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	var newUID string
	query := `INSERT INTO users (email, username, password_hash, role, remaining_credits)
			  VALUES ($1, $2, $3, $4, $5)
			  RETURNING uid;`
	if err := s.DB.QueryRowContext(ctx, query,
		user.Email, user.Username, user.PasswordHash, user.Role,
		user.RemainingCredits).Scan(&newUID); err != nil {
		if pgErrCode(err) == pgerrcode.UniqueViolation {
			return "", fmt.Errorf("%s: %w", op, ErrUserExists)
		}
		return "", fmt.Errorf("%s: %w", op, err)
	}
	return newUID, nil
}

// GetUserByUsername возвращает пользователя по его username.
func (s *Storage) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	const op = "storage.GetUserByUsername"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT uid, email, username, password_hash, role, remaining_credits, created_at
			  FROM users
			  WHERE username = $1`
	u := &models.User{}
	row := s.DB.QueryRowContext(ctx, query, username)
	if err := row.Scan(&u.UUID, &u.Email, &u.Username, &u.PasswordHash,
		&u.Role, &u.RemainingCredits, &u.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, ErrUserNotFound)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return u, nil
}

// GetUser возвращает пользователя по его uid.
func (s *Storage) GetUser(ctx context.Context, userUID string) (*models.User, error) {
	const op = "storage.GetUser"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT uid, email, username, password_hash, role, remaining_credits, created_at
			  FROM users
			  WHERE uid = $1`
	u := &models.User{}
	row := s.DB.QueryRowContext(ctx, query, userUID)
	if err := row.Scan(&u.UUID, &u.Email, &u.Username, &u.PasswordHash,
		&u.Role, &u.RemainingCredits, &u.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, ErrUserNotFound)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return u, nil
}

// ListUsers возвращает всех пользователей, упорядоченных по имени.
func (s *Storage) ListUsers(ctx context.Context) ([]*models.User, error) {
	const op = "storage.ListUsers"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT uid, email, username, password_hash, role, remaining_credits, created_at
			  FROM users
			  ORDER BY username`
	rows, err := s.DB.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var result []*models.User
	for rows.Next() {
		var u models.User
		if err = rows.Scan(&u.UUID, &u.Email, &u.Username, &u.PasswordHash,
			&u.Role, &u.RemainingCredits, &u.CreatedAt); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		result = append(result, &u)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}

// RemoveUser удаляет пользователя; его покупки и бронирования удаляются
// каскадно внешними ключами.
func (s *Storage) RemoveUser(ctx context.Context, userUID string) error {
	const op = "storage.RemoveUser"
	select {
	case <-ctx.Done():
		return fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	result, err := s.DB.ExecContext(ctx, `DELETE FROM users WHERE uid = $1`, userUID)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("%s: %w", op, ErrUserNotFound)
	}
	return nil
}

// GetRemainingCredits возвращает текущий остаток кредитов пользователя.
func (s *Storage) GetRemainingCredits(ctx context.Context, userUID string) (int, error) {
	const op = "storage.GetRemainingCredits"
	select {
	case <-ctx.Done():
		return 0, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	var credits int
	err := s.DB.QueryRowContext(ctx,
		`SELECT remaining_credits FROM users WHERE uid = $1`, userUID).Scan(&credits)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, fmt.Errorf("%s: %w", op, ErrUserNotFound)
		}
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return credits, nil
}

// ===== BOOKING METHODS =====

// CreateBookingWithDebit создает бронирование слота и списывает один кредит
// в одной транзакции. Возвращает id бронирования и новый остаток кредитов.
//
// Повторное бронирование того же слота отклоняется уникальным индексом
// (ErrDuplicateBooking), списание при нулевом балансе — условным UPDATE
// (ErrInsufficientCredit); в обоих случаях транзакция откатывается целиком.
func (s *Storage) CreateBookingWithDebit(ctx context.Context, userUID, date, tm string) (int, int, error) {
	const op = "storage.CreateBookingWithDebit"
	select {
	case <-ctx.Done():
		return 0, 0, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return 0, 0, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	var bookingID int
	err = tx.QueryRowContext(ctx,
		`INSERT INTO bookings (user_uid, class_date, class_time)
		 VALUES ($1, $2, $3)
		 RETURNING id`, userUID, date, tm).Scan(&bookingID)
	if err != nil {
		switch pgErrCode(err) {
		case pgerrcode.UniqueViolation:
			return 0, 0, fmt.Errorf("%s: %w", op, ErrDuplicateBooking)
		case pgerrcode.ForeignKeyViolation:
			return 0, 0, fmt.Errorf("%s: %w", op, ErrUserNotFound)
		}
		return 0, 0, fmt.Errorf("%s: %w", op, err)
	}

	var balance int
	err = tx.QueryRowContext(ctx,
		`UPDATE users
		 SET remaining_credits = remaining_credits - 1
		 WHERE uid = $1 AND remaining_credits > 0
		 RETURNING remaining_credits`, userUID).Scan(&balance)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, 0, fmt.Errorf("%s: %w", op, ErrInsufficientCredit)
		}
		return 0, 0, fmt.Errorf("%s: %w", op, err)
	}

	if err = tx.Commit(); err != nil {
		return 0, 0, fmt.Errorf("%s: %w", op, err)
	}
	return bookingID, balance, nil
}

// RemoveBookingWithRefund удаляет бронирование слота и возвращает один кредит
// в одной транзакции. Возвращает новый остаток кредитов.
func (s *Storage) RemoveBookingWithRefund(ctx context.Context, userUID, date, tm string) (int, error) {
	const op = "storage.RemoveBookingWithRefund"
	select {
	case <-ctx.Done():
		return 0, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	var bookingID int
	err = tx.QueryRowContext(ctx,
		`DELETE FROM bookings
		 WHERE user_uid = $1 AND class_date = $2 AND class_time = $3
		 RETURNING id`, userUID, date, tm).Scan(&bookingID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, fmt.Errorf("%s: %w", op, ErrBookingNotFound)
		}
		return 0, fmt.Errorf("%s: %w", op, err)
	}

	var balance int
	err = tx.QueryRowContext(ctx,
		`UPDATE users
		 SET remaining_credits = remaining_credits + 1
		 WHERE uid = $1
		 RETURNING remaining_credits`, userUID).Scan(&balance)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}

	if err = tx.Commit(); err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return balance, nil
}

// FindBooking возвращает бронирование пользователя для слота (date, tm).
func (s *Storage) FindBooking(ctx context.Context, userUID, date, tm string) (*models.Booking, error) {
	const op = "storage.FindBooking"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT id, user_uid, class_date, class_time, created_at
			  FROM bookings
			  WHERE user_uid = $1 AND class_date = $2 AND class_time = $3`
	var b models.Booking
	row := s.DB.QueryRowContext(ctx, query, userUID, date, tm)
	if err := row.Scan(&b.ID, &b.UserUID, &b.Date, &b.Time, &b.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, ErrBookingNotFound)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &b, nil
}

// ListBookings возвращает бронирования пользователя, упорядоченные по дате и времени.
func (s *Storage) ListBookings(ctx context.Context, userUID string) ([]*models.Booking, error) {
	const op = "storage.ListBookings"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT id, user_uid, class_date, class_time, created_at
			  FROM bookings
			  WHERE user_uid = $1
			  ORDER BY class_date, class_time`
	rows, err := s.DB.QueryContext(ctx, query, userUID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var result []*models.Booking
	for rows.Next() {
		var b models.Booking
		if err = rows.Scan(&b.ID, &b.UserUID, &b.Date, &b.Time, &b.CreatedAt); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		result = append(result, &b)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}

// FindBookingsForDate возвращает все бронирования занятий на дату date
// вместе с email и именем владельца — для писем-напоминаний.
func (s *Storage) FindBookingsForDate(ctx context.Context, date string) ([]*models.BookingReminder, error) {
	const op = "storage.FindBookingsForDate"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT u.email, u.username, b.class_date, b.class_time
			  FROM bookings b
			  JOIN users u ON b.user_uid = u.uid
			  WHERE b.class_date = $1
			  ORDER BY b.class_time, u.username`
	rows, err := s.DB.QueryContext(ctx, query, date)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var result []*models.BookingReminder
	for rows.Next() {
		var r models.BookingReminder
		if err = rows.Scan(&r.Email, &r.Username, &r.Date, &r.Time); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		result = append(result, &r)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}

// ===== PURCHASE METHODS =====

// CreatePurchaseWithGrant записывает покупку тарифа и начисляет кредиты
// в одной транзакции. Возвращает id покупки и новый остаток кредитов.
//
// Количество кредитов определяет вызывающая сторона по конфигурации тарифов;
// оно фиксируется в строке покупки для последующего отката.
func (s *Storage) CreatePurchaseWithGrant(ctx context.Context, userUID, planName string, credits int) (int, int, error) {
	const op = "storage.CreatePurchaseWithGrant"
	select {
	case <-ctx.Done():
		return 0, 0, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return 0, 0, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	var purchaseID int
	err = tx.QueryRowContext(ctx,
		`INSERT INTO purchases (user_uid, plan_name, credits)
		 VALUES ($1, $2, $3)
		 RETURNING id`, userUID, planName, credits).Scan(&purchaseID)
	if err != nil {
		if pgErrCode(err) == pgerrcode.ForeignKeyViolation {
			return 0, 0, fmt.Errorf("%s: %w", op, ErrUserNotFound)
		}
		return 0, 0, fmt.Errorf("%s: %w", op, err)
	}

	var balance int
	err = tx.QueryRowContext(ctx,
		`UPDATE users
		 SET remaining_credits = remaining_credits + $2
		 WHERE uid = $1
		 RETURNING remaining_credits`, userUID, credits).Scan(&balance)
	if err != nil {
		return 0, 0, fmt.Errorf("%s: %w", op, err)
	}

	if err = tx.Commit(); err != nil {
		return 0, 0, fmt.Errorf("%s: %w", op, err)
	}
	return purchaseID, balance, nil
}

// ListPurchases возвращает историю покупок пользователя, новые первыми.
func (s *Storage) ListPurchases(ctx context.Context, userUID string) ([]*models.Purchase, error) {
	const op = "storage.ListPurchases"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT id, user_uid, plan_name, credits, created_at
			  FROM purchases
			  WHERE user_uid = $1
			  ORDER BY created_at DESC, id DESC`
	rows, err := s.DB.QueryContext(ctx, query, userUID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var result []*models.Purchase
	for rows.Next() {
		var p models.Purchase
		if err = rows.Scan(&p.ID, &p.UserUID, &p.PlanName, &p.Credits, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		result = append(result, &p)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}

// RemovePurchaseWithRevoke удаляет покупку и откатывает зафиксированное в ней
// начисление кредитов, не опуская баланс ниже нуля. Обе записи меняются
// в одной транзакции. Возвращает uid владельца и его новый остаток.
func (s *Storage) RemovePurchaseWithRevoke(ctx context.Context, purchaseID int) (string, int, error) {
	const op = "storage.RemovePurchaseWithRevoke"
	select {
	case <-ctx.Done():
		return "", 0, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return "", 0, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	var userUID string
	var credits int
	err = tx.QueryRowContext(ctx,
		`DELETE FROM purchases WHERE id = $1
		 RETURNING user_uid, credits`, purchaseID).Scan(&userUID, &credits)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", 0, fmt.Errorf("%s: %w", op, ErrPurchaseNotFound)
		}
		return "", 0, fmt.Errorf("%s: %w", op, err)
	}

	var balance int
	err = tx.QueryRowContext(ctx,
		`UPDATE users
		 SET remaining_credits = GREATEST(remaining_credits - $2, 0)
		 WHERE uid = $1
		 RETURNING remaining_credits`, userUID, credits).Scan(&balance)
	if err != nil {
		return "", 0, fmt.Errorf("%s: %w", op, err)
	}

	if err = tx.Commit(); err != nil {
		return "", 0, fmt.Errorf("%s: %w", op, err)
	}
	return userUID, balance, nil
}

// ===== ADMIN CREDIT METHODS =====

// AddCredit безусловно добавляет пользователю один кредит
// и возвращает новый остаток.
func (s *Storage) AddCredit(ctx context.Context, userUID string) (int, error) {
	const op = "storage.AddCredit"
	select {
	case <-ctx.Done():
		return 0, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	var balance int
	err := s.DB.QueryRowContext(ctx,
		`UPDATE users
		 SET remaining_credits = remaining_credits + 1
		 WHERE uid = $1
		 RETURNING remaining_credits`, userUID).Scan(&balance)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, fmt.Errorf("%s: %w", op, ErrUserNotFound)
		}
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return balance, nil
}

// RemoveCredit снимает один кредит, если остаток положителен.
// При нулевом балансе возвращает applied=false без ошибки.
func (s *Storage) RemoveCredit(ctx context.Context, userUID string) (int, bool, error) {
	const op = "storage.RemoveCredit"
	select {
	case <-ctx.Done():
		return 0, false, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	var balance int
	err := s.DB.QueryRowContext(ctx,
		`UPDATE users
		 SET remaining_credits = remaining_credits - 1
		 WHERE uid = $1 AND remaining_credits > 0
		 RETURNING remaining_credits`, userUID).Scan(&balance)
	if err == nil {
		return balance, true, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return 0, false, fmt.Errorf("%s: %w", op, err)
	}

	// либо пользователя нет, либо баланс уже нулевой
	balance, err = s.GetRemainingCredits(ctx, userUID)
	if err != nil {
		return 0, false, fmt.Errorf("%s: %w", op, err)
	}
	return balance, false, nil
}
