package service

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"time"

	ics "github.com/arran4/golang-ical"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/alarmdryros/cuadrilla-app-sub000/internal/model"
	"github.com/alarmdryros/cuadrilla-app-sub000/internal/repository"
)

// ── export business errors ──

var (
	ErrExportSeasonEmpty  = errors.New("no data to export for this season")
	ErrExportGenerateFail = errors.New("failed to generate export file")
)

// ExportService renders roster and attendance data as downloadable
// files. Exports return a bytes.Buffer plus a suggested filename; the
// handler sets the HTTP headers and streams the buffer.
type ExportService interface {
	// ExportEventRoll renders the full roll of one event as .xlsx.
	ExportEventRoll(ctx context.Context, eventID string) (*bytes.Buffer, string, error)
	// ExportRoster renders the season roster as CSV.
	ExportRoster(ctx context.Context, seasonYear int) (*bytes.Buffer, string, error)
	// ExportSeasonCalendar renders the season's events as an iCalendar feed.
	ExportSeasonCalendar(ctx context.Context, seasonYear int) (*bytes.Buffer, string, error)
}

type exportService struct {
	repo   *repository.Repository
	logger *zap.Logger
}

// NewExportService creates the ExportService.
func NewExportService(repo *repository.Repository, logger *zap.Logger) ExportService {
	return &exportService{repo: repo, logger: logger}
}

// ═══════════════════════════════════════════════════════════
// ExportEventRoll renders an event roll as an Excel workbook.
// ═══════════════════════════════════════════════════════════
//
// Layout:
//   - title row: event name and date
//   - header: Trabajadera | Name | Status | Marked at | Height pre | Height post
//   - one row per roster member, trabajadera groups in carrying order,
//     unassigned (0) last, surnames alphabetical within a group

func (s *exportService) ExportEventRoll(ctx context.Context, eventID string) (*bytes.Buffer, string, error) {
	event, err := s.repo.Event.GetByID(ctx, eventID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, "", ErrEventNotFound
		}
		s.logger.Error("look up event failed", zap.Error(err))
		return nil, "", err
	}

	members, err := s.repo.Member.ListBySeason(ctx, event.SeasonYear)
	if err != nil {
		return nil, "", err
	}
	if len(members) == 0 {
		return nil, "", ErrExportSeasonEmpty
	}

	records, err := s.repo.Attendance.ListByEvent(ctx, eventID)
	if err != nil {
		return nil, "", err
	}
	latest := dedupeLatest(records)

	sort.Slice(members, func(i, j int) bool {
		if members[i].Trabajadera != members[j].Trabajadera {
			return trabajaderaLess(members[i].Trabajadera, members[j].Trabajadera)
		}
		if members[i].Surname != members[j].Surname {
			return members[i].Surname < members[j].Surname
		}
		return members[i].FirstName < members[j].FirstName
	})

	f := excelize.NewFile()
	defer f.Close()

	sheetName := "Roll"
	idx, _ := f.NewSheet(sheetName)
	f.SetActiveSheet(idx)
	f.DeleteSheet("Sheet1")

	f.SetColWidth(sheetName, "A", "A", 12)
	f.SetColWidth(sheetName, "B", "B", 30)
	f.SetColWidth(sheetName, "C", "C", 14)
	f.SetColWidth(sheetName, "D", "D", 22)
	f.SetColWidth(sheetName, "E", "F", 12)

	headerStyle, _ := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 11},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#6B2737"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})

	f.SetCellValue(sheetName, "A1", fmt.Sprintf("%s - %s", event.Name, event.StartAt.Format("2006-01-02")))
	f.MergeCell(sheetName, "A1", "F1")
	f.SetCellStyle(sheetName, "A1", "A1", headerStyle)

	row := 2
	headers := []string{"Trabajadera", "Name", "Status", "Marked at", "Height pre", "Height post"}
	for i, h := range headers {
		f.SetCellValue(sheetName, cell(colName(i), row), h)
	}

	row = 3
	for i := range members {
		m := &members[i]

		trabajadera := "unassigned"
		if m.Trabajadera != model.TrabajaderaUnassigned {
			trabajadera = strconv.Itoa(m.Trabajadera)
		}
		f.SetCellValue(sheetName, cell("A", row), trabajadera)
		f.SetCellValue(sheetName, cell("B", row), m.FullName())

		if rec, ok := latest[m.MemberID]; ok {
			f.SetCellValue(sheetName, cell("C", row), rec.Status)
			f.SetCellValue(sheetName, cell("D", row), rec.MarkedAt.UTC().Format("2006-01-02 15:04"))
			if rec.HeightPreCm != nil {
				f.SetCellValue(sheetName, cell("E", row), *rec.HeightPreCm)
			}
			if rec.HeightPostCm != nil {
				f.SetCellValue(sheetName, cell("F", row), *rec.HeightPostCm)
			}
		} else {
			f.SetCellValue(sheetName, cell("C", row), "unregistered")
			f.SetCellValue(sheetName, cell("D", row), "-")
		}
		row++
	}

	buf := new(bytes.Buffer)
	if err := f.Write(buf); err != nil {
		s.logger.Error("write xlsx failed", zap.Error(err))
		return nil, "", ErrExportGenerateFail
	}

	filename := fmt.Sprintf("roll_%s_%s.xlsx", event.StartAt.Format("20060102"), eventID[:8])
	return buf, filename, nil
}

// ═══════════════════════════════════════════════════════════
// ExportRoster renders the season roster as CSV.
// ═══════════════════════════════════════════════════════════

func (s *exportService) ExportRoster(ctx context.Context, seasonYear int) (*bytes.Buffer, string, error) {
	members, err := s.repo.Member.ListBySeason(ctx, seasonYear)
	if err != nil {
		s.logger.Error("list season roster failed", zap.Error(err))
		return nil, "", err
	}
	if len(members) == 0 {
		return nil, "", ErrExportSeasonEmpty
	}

	sort.Slice(members, func(i, j int) bool {
		if members[i].Trabajadera != members[j].Trabajadera {
			return trabajaderaLess(members[i].Trabajadera, members[j].Trabajadera)
		}
		return members[i].Surname < members[j].Surname
	})

	buf := new(bytes.Buffer)
	w := csv.NewWriter(buf)
	_ = w.Write([]string{"trabajadera", "surname", "first_name", "role", "phone", "email", "height_cm", "shoe_height_cm"})
	for i := range members {
		m := &members[i]
		_ = w.Write([]string{
			strconv.Itoa(m.Trabajadera),
			m.Surname,
			m.FirstName,
			m.Role,
			m.Phone,
			m.Email,
			formatHeight(m.HeightCm),
			formatHeight(m.ShoeHeightCm),
		})
	}
	w.Flush()
	if err := w.Error(); err != nil {
		s.logger.Error("write csv failed", zap.Error(err))
		return nil, "", ErrExportGenerateFail
	}

	filename := fmt.Sprintf("roster_%d.csv", seasonYear)
	return buf, filename, nil
}

// ═══════════════════════════════════════════════════════════
// ExportSeasonCalendar renders the season events as iCalendar (RFC 5545).
// ═══════════════════════════════════════════════════════════

func (s *exportService) ExportSeasonCalendar(ctx context.Context, seasonYear int) (*bytes.Buffer, string, error) {
	events, err := s.repo.Event.ListBySeason(ctx, seasonYear)
	if err != nil {
		s.logger.Error("list season events failed", zap.Error(err))
		return nil, "", err
	}
	if len(events) == 0 {
		return nil, "", ErrExportSeasonEmpty
	}

	cal := ics.NewCalendar()
	cal.SetMethod(ics.MethodPublish)
	cal.SetProductId("-//cuadrilla//attendance//ES")
	cal.SetName(fmt.Sprintf("Cuadrilla %d", seasonYear))

	now := time.Now().UTC()
	for i := range events {
		e := &events[i]
		ev := cal.AddEvent(fmt.Sprintf("%s@cuadrilla", e.EventID))
		ev.SetDtStampTime(now)
		ev.SetStartAt(e.StartAt.UTC())
		ev.SetEndAt(e.EndAt.UTC())
		ev.SetSummary(e.Name)
		if e.Location != "" {
			ev.SetLocation(e.Location)
		}
	}

	buf := bytes.NewBufferString(cal.Serialize())
	filename := fmt.Sprintf("season_%d.ics", seasonYear)
	return buf, filename, nil
}

// ── helpers ──

func colName(idx int) string {
	name, _ := excelize.ColumnNumberToName(idx + 1)
	return name
}

func cell(col string, row int) string {
	return fmt.Sprintf("%s%d", col, row)
}

func formatHeight(v *float64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatFloat(*v, 'f', 1, 64)
}
