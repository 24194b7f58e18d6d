package repository_test

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"

	repo "github.com/openshelf/openshelf/internal/repository"
)

func TestSearchReturnsMatches(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	r := repo.NewBookRepo(db)

	rows := sqlmock.NewRows([]string{"id", "title", "author", "year", "overview", "pdf_url", "publisher_id"}).
		AddRow(1, "Dune", "Frank Herbert", 1965, "Sand.", "/uploads/pdf-1.pdf", 4).
		AddRow(2, "Dune Messiah", "Frank Herbert", 1969, "More sand.", nil, 4)
	mock.ExpectQuery("SELECT id, title, author, year, overview, pdf_url, publisher_id FROM books WHERE title LIKE").
		WithArgs("%dune%", "%dune%", 20).
		WillReturnRows(rows)

	books, err := r.Search(context.Background(), "dune", 20)
	require.NoError(t, err)
	require.Len(t, books, 2)
	require.NotNil(t, books[0].PDFURL)
	require.Nil(t, books[1].PDFURL)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSearchNoMatchesIsEmptyNotNil(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	r := repo.NewBookRepo(db)

	mock.ExpectQuery("SELECT id, title, author, year, overview, pdf_url, publisher_id FROM books").
		WithArgs("%zzz%", "%zzz%", 20).
		WillReturnRows(sqlmock.NewRows([]string{"id", "title", "author", "year", "overview", "pdf_url", "publisher_id"}))

	books, err := r.Search(context.Background(), "zzz", 20)
	require.NoError(t, err)
	require.NotNil(t, books)
	require.Empty(t, books)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateBookWithoutPDF(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	r := repo.NewBookRepo(db)

	mock.ExpectExec("INSERT INTO books").
		WithArgs("Dune", "Frank Herbert", 1965, "Sand.", nil, uint64(4)).
		WillReturnResult(sqlmock.NewResult(11, 1))

	id, err := r.Create(context.Background(), "Dune", "Frank Herbert", 1965, "Sand.", nil, 4)
	require.NoError(t, err)
	require.Equal(t, uint64(11), id)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestListByPublisherUsesDescriptionAlias(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	r := repo.NewBookRepo(db)

	rows := sqlmock.NewRows([]string{"id", "title", "author", "year", "overview", "pdf_url"}).
		AddRow(1, "Dune", "Frank Herbert", 1965, "Sand.", "/uploads/pdf-1.pdf")
	mock.ExpectQuery("SELECT id, title, author, year, overview, pdf_url FROM books WHERE publisher_id=").
		WithArgs(uint64(4)).
		WillReturnRows(rows)

	books, err := r.ListByPublisher(context.Background(), 4)
	require.NoError(t, err)
	require.Len(t, books, 1)
	require.Equal(t, "Sand.", books[0].Description)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCountByPublisher(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	r := repo.NewBookRepo(db)

	mock.ExpectQuery("SELECT COUNT\\(\\*\\) FROM books WHERE publisher_id=").
		WithArgs(uint64(4)).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(6))

	n, err := r.CountByPublisher(context.Background(), 4)
	require.NoError(t, err)
	require.Equal(t, 6, n)
	require.NoError(t, mock.ExpectationsWereMet())
}
