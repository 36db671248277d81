package service_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	studentdomain "github.com/shulepay/shulepay/internal/student/domain"
	studentservice "github.com/shulepay/shulepay/internal/student/service"
	"github.com/shulepay/shulepay/pkg/db/pagination"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func newService(t *testing.T) studentdomain.Service {
	t.Helper()

	dsn := fmt.Sprintf("file:memdb_student_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&studentdomain.Student{}))

	node, err := snowflake.NewNode(4)
	require.NoError(t, err)

	return studentservice.NewService(studentservice.ServiceParam{
		DB:    db,
		Log:   zap.NewNop(),
		GenID: node,
	})
}

func TestCreateStudent(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()

	created, err := svc.Create(ctx, studentdomain.CreateStudentRequest{
		AdmissionNumber: " ADM-100 ",
		FirstName:       "Asha",
		LastName:        "Mwangi",
		Class:           "4B",
	})
	require.NoError(t, err)
	require.Equal(t, "ADM-100", created.AdmissionNumber)
	require.Equal(t, studentdomain.StudentStatusActive, created.Status)

	got, err := svc.GetByID(ctx, created.ID)
	require.NoError(t, err)
	require.Equal(t, created.AdmissionNumber, got.AdmissionNumber)
}

func TestCreateStudentValidation(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()

	_, err := svc.Create(ctx, studentdomain.CreateStudentRequest{FirstName: "A", LastName: "B"})
	require.ErrorIs(t, err, studentdomain.ErrInvalidAdmissionNumber)

	_, err = svc.Create(ctx, studentdomain.CreateStudentRequest{AdmissionNumber: "ADM-1", FirstName: "  "})
	require.ErrorIs(t, err, studentdomain.ErrInvalidName)
}

func TestCreateStudentAdmissionNumberConflict(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()

	_, err := svc.Create(ctx, studentdomain.CreateStudentRequest{
		AdmissionNumber: "ADM-200", FirstName: "A", LastName: "B",
	})
	require.NoError(t, err)

	_, err = svc.Create(ctx, studentdomain.CreateStudentRequest{
		AdmissionNumber: "ADM-200", FirstName: "C", LastName: "D",
	})
	require.ErrorIs(t, err, studentdomain.ErrAdmissionNumberConflict)
}

func TestListStudentsCursorPagination(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()

	for i := 1; i <= 7; i++ {
		_, err := svc.Create(ctx, studentdomain.CreateStudentRequest{
			AdmissionNumber: fmt.Sprintf("ADM-%03d", i),
			FirstName:       "Student",
			LastName:        fmt.Sprintf("Number%d", i),
		})
		require.NoError(t, err)
	}

	seen := make(map[string]bool)
	token := ""
	pages := 0
	for {
		resp, err := svc.List(ctx, studentdomain.ListStudentRequest{
			Pagination: pagination.Pagination{PageToken: token, PageSize: 3},
		})
		require.NoError(t, err)
		require.LessOrEqual(t, len(resp.Students), 3)
		for _, st := range resp.Students {
			require.False(t, seen[st.AdmissionNumber], "duplicate row across pages: %s", st.AdmissionNumber)
			seen[st.AdmissionNumber] = true
		}

		pages++
		require.NotNil(t, resp.PageInfo)
		if !resp.PageInfo.HasMore {
			break
		}
		token = resp.PageInfo.NextPageToken
		require.NotEmpty(t, token)
	}

	require.Len(t, seen, 7)
	require.GreaterOrEqual(t, pages, 3)
}

func TestListStudentsInvalidPageToken(t *testing.T) {
	svc := newService(t)

	_, err := svc.List(context.Background(), studentdomain.ListStudentRequest{
		Pagination: pagination.Pagination{PageToken: "not-base64!"},
	})
	require.ErrorIs(t, err, studentdomain.ErrInvalidPageToken)
}
