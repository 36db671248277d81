package domain

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
	"github.com/shulepay/shulepay/pkg/db/pagination"
)

type CreateStudentRequest struct {
	AdmissionNumber string `json:"admission_number"`
	FirstName       string `json:"first_name"`
	LastName        string `json:"last_name"`
	GuardianName    string `json:"guardian_name"`
	PhoneNumber     string `json:"phone_number"`
	EducationLevel  string `json:"education_level"`
	Class           string `json:"class"`
}

type ListStudentRequest struct {
	Status     *StudentStatus
	Pagination pagination.Pagination
}

type ListStudentResponse struct {
	Students []Student            `json:"students"`
	PageInfo *pagination.PageInfo `json:"page_info,omitempty"`
}

type Service interface {
	Create(ctx context.Context, req CreateStudentRequest) (Student, error)
	List(ctx context.Context, req ListStudentRequest) (ListStudentResponse, error)
	GetByID(ctx context.Context, id snowflake.ID) (Student, error)
}

var (
	ErrNotFound                = errors.New("student_not_found")
	ErrInvalidAdmissionNumber  = errors.New("invalid_admission_number")
	ErrInvalidName             = errors.New("invalid_name")
	ErrAdmissionNumberConflict = errors.New("admission_number_conflict")
	ErrInvalidPageToken        = errors.New("invalid_page_token")
)
