package services

import (
	"bytes"
	"fmt"

	"github.com/xuri/excelize/v2"

	"github.com/Nivk0/ktpilot-rag-bot/models"
)

// ExportMessagesXLSX renders message history as a spreadsheet for the
// executive panel download.
func ExportMessagesXLSX(messages []models.Message) (*bytes.Buffer, error) {
	f := excelize.NewFile()
	defer f.Close()

	const sheet = "Messages"
	index, err := f.NewSheet(sheet)
	if err != nil {
		return nil, fmt.Errorf("failed to create sheet: %w", err)
	}
	f.SetActiveSheet(index)
	f.DeleteSheet("Sheet1")

	headers := []string{"Timestamp", "From", "Kind", "Conversation", "Message", "Reply", "Sources"}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		f.SetCellValue(sheet, cell, h)
	}

	for row, msg := range messages {
		sources := ""
		for i, src := range msg.Sources {
			if i > 0 {
				sources += "; "
			}
			sources += src.Title
		}

		values := []interface{}{
			msg.Timestamp.Format("2006-01-02 15:04:05"),
			msg.FromName,
			msg.Kind,
			msg.ConversationID,
			msg.Message,
			msg.Reply,
			sources,
		}
		for col, v := range values {
			cell, _ := excelize.CoordinatesToCellName(col+1, row+2)
			f.SetCellValue(sheet, cell, v)
		}
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, fmt.Errorf("failed to write workbook: %w", err)
	}
	return &buf, nil
}
