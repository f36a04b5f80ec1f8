package storage

import (
	"context"
	"errors"
	"testing"

	"github.com/Veraticus/sheetsync/internal/model"
)

func TestValidateContext(t *testing.T) {
	tests := []struct {
		ctx     context.Context
		name    string
		wantErr bool
	}{
		{
			name:    "valid context",
			ctx:     context.Background(),
			wantErr: false,
		},
		{
			name:    "nil context",
			ctx:     nil,
			wantErr: true,
		},
		{
			name: "canceled context still valid",
			ctx: func() context.Context {
				ctx, cancel := context.WithCancel(context.Background())
				cancel()
				return ctx
			}(),
			wantErr: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validateContext(tt.ctx)
			if (err != nil) != tt.wantErr {
				t.Errorf("validateContext() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestValidateDate(t *testing.T) {
	tests := []struct {
		date    string
		wantErr bool
	}{
		{date: "2024-03-05", wantErr: false},
		{date: "05/03/2024", wantErr: true},
		{date: "", wantErr: true},
		{date: "2024-3-5", wantErr: true},
		{date: "2024-02-30", wantErr: true},
		{date: "2024-02-29", wantErr: false},
	}

	for _, tt := range tests {
		t.Run(tt.date, func(t *testing.T) {
			err := validateDate(tt.date)
			if (err != nil) != tt.wantErr {
				t.Errorf("validateDate(%q) error = %v, wantErr %v", tt.date, err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, ErrInvalidDate) {
				t.Errorf("validateDate(%q) error = %v, want ErrInvalidDate", tt.date, err)
			}
		})
	}
}

func TestValidateBatch(t *testing.T) {
	tests := []struct {
		name    string
		batch   model.Batch
		wantErr bool
	}{
		{
			name:  "valid empty batch",
			batch: model.Batch{Type: model.RecordTypeInventory},
		},
		{
			name: "valid orders",
			batch: model.Batch{Type: model.RecordTypeOrders, Orders: []model.Order{
				{SheetRowID: "orders_2"},
			}},
		},
		{
			name:    "missing type",
			batch:   model.Batch{},
			wantErr: true,
		},
		{
			name: "records of another type",
			batch: model.Batch{Type: model.RecordTypeEmployees, Expenses: []model.Expense{
				{SheetRowID: "expenses_2"},
			}},
			wantErr: true,
		},
		{
			name: "blank row identity",
			batch: model.Batch{Type: model.RecordTypeEmployees, Employees: []model.EmployeeRecord{
				{SheetRowID: ""},
			}},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validateBatch(tt.batch)
			if (err != nil) != tt.wantErr {
				t.Errorf("validateBatch() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, ErrInvalidRecord) {
				t.Errorf("validateBatch() error = %v, want ErrInvalidRecord", err)
			}
		})
	}
}
