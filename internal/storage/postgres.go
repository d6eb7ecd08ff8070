package storage

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"time"

	"github.com/lib/pq"
	"github.com/triestelab/whatsapp-agent/internal/models"
)

//go:embed migrations.sql
var migrations embed.FS

type DatabaseConfig struct {
	Host        string
	Port        int
	User        string
	Password    string
	DBName      string
	SSLMode     string
	UseInMemory bool
}

type PostgresStorage struct {
	db *sql.DB
}

func NewPostgresStorage(config DatabaseConfig) (*PostgresStorage, error) {
	connStr := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		config.Host, config.Port, config.User, config.Password, config.DBName, config.SSLMode)

	db, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, fmt.Errorf("error opening database: %v", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("error connecting to the database: %v", err)
	}

	storage := &PostgresStorage{db: db}

	if err := storage.initializeSchema(); err != nil {
		return nil, fmt.Errorf("error initializing database schema: %v", err)
	}

	return storage, nil
}

func (s *PostgresStorage) initializeSchema() error {
	migrationSQL, err := migrations.ReadFile("migrations.sql")
	if err != nil {
		return fmt.Errorf("error reading migrations file: %v", err)
	}

	_, err = s.db.Exec(string(migrationSQL))
	if err != nil {
		return fmt.Errorf("error executing migrations: %v", err)
	}

	return nil
}

const customerColumns = `id, phone, nome, azienda, settore, email, etichette, note,
		numero_messaggi, stato, data_creazione, ultima_interazione`

func scanCustomer(row interface{ Scan(...any) error }) (*models.Customer, error) {
	c := &models.Customer{}
	err := row.Scan(
		&c.ID,
		&c.Phone,
		&c.Name,
		&c.Company,
		&c.Sector,
		&c.Email,
		pq.Array(&c.Tags),
		&c.Notes,
		&c.MessageCount,
		&c.Status,
		&c.CreatedAt,
		&c.LastInteraction,
	)
	if err != nil {
		return nil, err
	}
	return c, nil
}

func (s *PostgresStorage) GetCustomerByPhone(ctx context.Context, phone string) (*models.Customer, error) {
	query := `SELECT ` + customerColumns + ` FROM clienti WHERE phone = $1`

	customer, err := scanCustomer(s.db.QueryRowContext(ctx, query, phone))
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("error querying customer: %v", err)
	}
	return customer, nil
}

func (s *PostgresStorage) CreateCustomer(ctx context.Context, customer *models.Customer) error {
	if customer.Sector == "" {
		customer.Sector = models.SectorGeneric
	}
	if customer.Status == "" {
		customer.Status = models.StatusActive
	}
	if customer.Tags == nil {
		customer.Tags = []string{}
	}

	query := `
		INSERT INTO clienti (phone, nome, azienda, settore, email, etichette, note, stato)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, numero_messaggi, data_creazione, ultima_interazione`

	err := s.db.QueryRowContext(
		ctx,
		query,
		customer.Phone,
		customer.Name,
		customer.Company,
		customer.Sector,
		customer.Email,
		pq.Array(customer.Tags),
		customer.Notes,
		customer.Status,
	).Scan(&customer.ID, &customer.MessageCount, &customer.CreatedAt, &customer.LastInteraction)

	if err != nil {
		return fmt.Errorf("error creating customer: %v", err)
	}

	return nil
}

// RecordInteraction runs as a single row-scoped UPDATE so concurrent
// messages from the same phone never lose a counter increment. GREATEST
// keeps the last-interaction timestamp from moving backwards.
func (s *PostgresStorage) RecordInteraction(ctx context.Context, phone string, at time.Time) error {
	query := `
		UPDATE clienti
		SET numero_messaggi = numero_messaggi + 1,
		    ultima_interazione = GREATEST(ultima_interazione, $2)
		WHERE phone = $1`

	result, err := s.db.ExecContext(ctx, query, phone, at)
	if err != nil {
		return fmt.Errorf("error recording interaction: %v", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("error getting rows affected: %v", err)
	}
	if rowsAffected == 0 {
		return ErrNotFound
	}

	return nil
}

func (s *PostgresStorage) listCustomers(ctx context.Context, query string, args ...any) ([]*models.Customer, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("error querying customers: %v", err)
	}
	defer rows.Close()

	var customers []*models.Customer
	for rows.Next() {
		customer, err := scanCustomer(rows)
		if err != nil {
			return nil, fmt.Errorf("error scanning customer: %v", err)
		}
		customers = append(customers, customer)
	}

	return customers, rows.Err()
}

func (s *PostgresStorage) ListNewCustomers(ctx context.Context, createdSince time.Time) ([]*models.Customer, error) {
	query := `
		SELECT ` + customerColumns + `
		FROM clienti
		WHERE data_creazione >= $1 AND numero_messaggi = 0
		ORDER BY data_creazione ASC`

	return s.listCustomers(ctx, query, createdSince)
}

func (s *PostgresStorage) ListActiveCustomers(ctx context.Context, activeSince time.Time) ([]*models.Customer, error) {
	query := `
		SELECT ` + customerColumns + `
		FROM clienti
		WHERE stato = $1 AND ultima_interazione >= $2
		ORDER BY ultima_interazione DESC`

	return s.listCustomers(ctx, query, models.StatusActive, activeSince)
}

func (s *PostgresStorage) ListIdleCustomers(ctx context.Context, idleSince time.Time) ([]*models.Customer, error) {
	query := `
		SELECT ` + customerColumns + `
		FROM clienti
		WHERE stato = $1 AND ultima_interazione < $2 AND numero_messaggi > 0
		ORDER BY ultima_interazione ASC`

	return s.listCustomers(ctx, query, models.StatusActive, idleSince)
}

func (s *PostgresStorage) CountCustomersCreatedSince(ctx context.Context, since time.Time) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM clienti WHERE data_creazione >= $1`, since).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("error counting customers: %v", err)
	}
	return count, nil
}

func (s *PostgresStorage) CountCustomersInactiveSince(ctx context.Context, before time.Time) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM clienti WHERE ultima_interazione < $1`, before).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("error counting inactive customers: %v", err)
	}
	return count, nil
}

func (s *PostgresStorage) ListFAQsBySector(ctx context.Context, sector string) ([]*models.FAQ, error) {
	query := `
		SELECT id, domanda_keywords, domanda_completa, risposta, settore, priorita, data_creazione
		FROM faq
		WHERE settore = '' OR settore = $1
		ORDER BY priorita DESC, id ASC`

	rows, err := s.db.QueryContext(ctx, query, sector)
	if err != nil {
		return nil, fmt.Errorf("error querying faq: %v", err)
	}
	defer rows.Close()

	var faqs []*models.FAQ
	for rows.Next() {
		faq := &models.FAQ{}
		err := rows.Scan(
			&faq.ID,
			&faq.Keywords,
			&faq.Question,
			&faq.Answer,
			&faq.Sector,
			&faq.Priority,
			&faq.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("error scanning faq: %v", err)
		}
		faqs = append(faqs, faq)
	}

	return faqs, rows.Err()
}

func (s *PostgresStorage) CreateFAQ(ctx context.Context, faq *models.FAQ) error {
	query := `
		INSERT INTO faq (domanda_keywords, domanda_completa, risposta, settore, priorita)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, data_creazione`

	err := s.db.QueryRowContext(
		ctx,
		query,
		faq.Keywords,
		faq.Question,
		faq.Answer,
		faq.Sector,
		faq.Priority,
	).Scan(&faq.ID, &faq.CreatedAt)

	if err != nil {
		return fmt.Errorf("error creating faq: %v", err)
	}

	return nil
}

func (s *PostgresStorage) SaveInteraction(ctx context.Context, interaction *models.Interaction) error {
	query := `
		INSERT INTO messaggi (cliente_phone, testo_cliente, testo_risposta, tipo_risposta, data_messaggio)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id`

	if interaction.CreatedAt.IsZero() {
		interaction.CreatedAt = time.Now().UTC()
	}

	err := s.db.QueryRowContext(
		ctx,
		query,
		interaction.CustomerPhone,
		interaction.Inbound,
		interaction.Outbound,
		interaction.ResponseType,
		interaction.CreatedAt,
	).Scan(&interaction.ID)

	if err != nil {
		return fmt.Errorf("error saving interaction: %v", err)
	}

	return nil
}

func (s *PostgresStorage) CountInteractionsSince(ctx context.Context, since time.Time) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM messaggi WHERE data_messaggio >= $1`, since).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("error counting interactions: %v", err)
	}
	return count, nil
}

func (s *PostgresStorage) PurgeInteractionsBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	result, err := s.db.ExecContext(ctx,
		`DELETE FROM messaggi WHERE data_messaggio < $1`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("error purging interactions: %v", err)
	}

	deleted, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("error getting rows affected: %v", err)
	}

	return deleted, nil
}

func (s *PostgresStorage) Close() error {
	return s.db.Close()
}
