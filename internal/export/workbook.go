package export

import (
	"bytes"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/example/room-scheduler/internal/application"
)

// ErrWorkbookGenerate reports a failure while rendering the workbook.
var ErrWorkbookGenerate = errors.New("failed to generate workbook")

const (
	occupancySheet = "Occupancy"
	summarySheet   = "Summary"
)

// WorkbookOptions controls the occupancy report.
type WorkbookOptions struct {
	Location *time.Location
	// Rooms are listed in the summary even when they have no reservations.
	Rooms []string
	From  time.Time
	To    time.Time
}

type roomUsage struct {
	number  string
	terms   int
	minutes int
}

// BuildOccupancyWorkbook renders room based reservations into an xlsx report
// with one row per term and a per-room summary sheet. Place based terms are skipped.
func BuildOccupancyWorkbook(reservations []application.Reservation, opts WorkbookOptions) (*bytes.Buffer, error) {
	loc := opts.Location
	if loc == nil {
		loc = time.UTC
	}

	rows := make([]application.Reservation, 0, len(reservations))
	usage := make(map[string]*roomUsage)
	for _, room := range opts.Rooms {
		usage[room] = &roomUsage{number: room}
	}
	for _, reservation := range reservations {
		if reservation.RoomNumber == "" {
			continue
		}
		rows = append(rows, reservation)
		entry, ok := usage[reservation.RoomNumber]
		if !ok {
			entry = &roomUsage{number: reservation.RoomNumber}
			usage[reservation.RoomNumber] = entry
		}
		entry.terms++
		entry.minutes += int(reservation.End.Sub(reservation.Start) / time.Minute)
	}
	sort.SliceStable(rows, func(i, j int) bool {
		if rows[i].RoomNumber != rows[j].RoomNumber {
			return rows[i].RoomNumber < rows[j].RoomNumber
		}
		return rows[i].Start.Before(rows[j].Start)
	})

	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", occupancySheet); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrWorkbookGenerate, err)
	}
	if _, err := f.NewSheet(summarySheet); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrWorkbookGenerate, err)
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 11},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#D9E1F2"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrWorkbookGenerate, err)
	}

	if err := writeOccupancy(f, rows, loc, headerStyle); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrWorkbookGenerate, err)
	}
	if err := writeSummary(f, usage, opts, loc, headerStyle); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrWorkbookGenerate, err)
	}

	buf := new(bytes.Buffer)
	if err := f.Write(buf); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrWorkbookGenerate, err)
	}
	return buf, nil
}

func writeOccupancy(f *excelize.File, rows []application.Reservation, loc *time.Location, headerStyle int) error {
	header := []any{"Room", "Date", "Start", "End", "Title", "Type", "Status", "Author"}
	if err := f.SetSheetRow(occupancySheet, "A1", &header); err != nil {
		return err
	}
	if err := f.SetCellStyle(occupancySheet, "A1", cell(len(header), 1), headerStyle); err != nil {
		return err
	}
	if err := f.SetColWidth(occupancySheet, "E", "E", 40); err != nil {
		return err
	}

	for i, reservation := range rows {
		start := reservation.Start.In(loc)
		end := reservation.End.In(loc)
		values := []any{
			reservation.RoomNumber,
			start.Format("2006-01-02"),
			start.Format("15:04"),
			end.Format("15:04"),
			reservation.Title,
			string(reservation.Type),
			string(reservation.Status),
			reservation.AuthorName,
		}
		if err := f.SetSheetRow(occupancySheet, cell(1, i+2), &values); err != nil {
			return err
		}
	}
	return nil
}

func writeSummary(f *excelize.File, usage map[string]*roomUsage, opts WorkbookOptions, loc *time.Location, headerStyle int) error {
	rooms := make([]*roomUsage, 0, len(usage))
	for _, entry := range usage {
		rooms = append(rooms, entry)
	}
	sort.Slice(rooms, func(i, j int) bool { return rooms[i].number < rooms[j].number })

	header := []any{"Room", "Terms", "Reserved minutes"}
	if err := f.SetSheetRow(summarySheet, "A1", &header); err != nil {
		return err
	}
	if err := f.SetCellStyle(summarySheet, "A1", cell(len(header), 1), headerStyle); err != nil {
		return err
	}
	for i, entry := range rooms {
		values := []any{entry.number, entry.terms, entry.minutes}
		if err := f.SetSheetRow(summarySheet, cell(1, i+2), &values); err != nil {
			return err
		}
	}

	if !opts.From.IsZero() && !opts.To.IsZero() {
		period := fmt.Sprintf("%s - %s", opts.From.In(loc).Format("2006-01-02"), opts.To.In(loc).Format("2006-01-02"))
		if err := f.SetCellValue(summarySheet, "E1", "Period"); err != nil {
			return err
		}
		if err := f.SetCellValue(summarySheet, "F1", period); err != nil {
			return err
		}
	}
	return nil
}

func cell(col, row int) string {
	name, _ := excelize.CoordinatesToCellName(col, row)
	return name
}
