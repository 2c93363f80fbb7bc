package financeRepository

import "GymFinance/internal/entity"

const (
	transactionColumns = `
			id,
			description,
			amount,
			type,
			category,
			date,
			status,
			payment_method,
			reference_number,
			notes,
			created_at,
			updated_at`

	queryCreateTransaction = `
		INSERT INTO transactions (
			id,
			description,
			amount,
			type,
			category,
			date,
			status,
			payment_method,
			reference_number,
			notes,
			created_at,
			updated_at
		) VALUES (
			:id,
			:description,
			:amount,
			:type,
			:category,
			:date,
			:status,
			:payment_method,
			:reference_number,
			:notes,
			:created_at,
			:updated_at
		)
	`

	queryListTransactions = `
		SELECT` + transactionColumns + `
		FROM transactions
		WHERE 1 = 1`

	queryGetTransactionByID = `
		SELECT` + transactionColumns + `
		FROM transactions
		WHERE id = :id
	`

	queryListTransactionsInRange = `
		SELECT` + transactionColumns + `
		FROM transactions
		WHERE date >= :start_date AND date <= :end_date
		ORDER BY date DESC, id ASC
	`

	queryUpdateTransaction = `
		UPDATE transactions
		SET
			description = :description,
			amount = :amount,
			type = :type,
			category = :category,
			date = :date,
			status = :status,
			payment_method = :payment_method,
			reference_number = :reference_number,
			notes = :notes,
			updated_at = :updated_at
		WHERE id = :id
	`

	queryDeleteTransaction = `
		DELETE FROM transactions
		WHERE id = :id
	`

	categoryColumns = `
			id,
			name,
			type,
			description,
			created_at,
			updated_at`

	queryCreateCategory = `
		INSERT INTO transaction_categories (
			id,
			name,
			type,
			description,
			created_at,
			updated_at
		) VALUES (
			:id,
			:name,
			:type,
			:description,
			:created_at,
			:updated_at
		)
	`

	queryListCategories = `
		SELECT` + categoryColumns + `
		FROM transaction_categories
		ORDER BY name ASC, id ASC
	`

	queryGetCategoryByID = `
		SELECT` + categoryColumns + `
		FROM transaction_categories
		WHERE id = :id
	`

	queryCountCategoryByNameAndType = `
		SELECT COUNT(*)
		FROM transaction_categories
		WHERE LOWER(name) = LOWER(:name) AND type = :type AND id <> :id
	`

	queryUpdateCategory = `
		UPDATE transaction_categories
		SET
			name = :name,
			type = :type,
			description = :description,
			updated_at = :updated_at
		WHERE id = :id
	`

	queryDeleteCategory = `
		DELETE FROM transaction_categories
		WHERE id = :id
	`
)

// sortColumns whitelists the ORDER BY targets accepted from filters.
var sortColumns = map[entity.SortColumn]string{
	entity.SortByDate:        "date",
	entity.SortByAmount:      "amount",
	entity.SortByDescription: "LOWER(description)",
	entity.SortByCategory:    "LOWER(category)",
}
