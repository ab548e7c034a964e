package krx

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/Mrbaeksang/korea-stock-analyzer-mcp/internal/contracts"
)

const finderStub = `{
	"block1": [
		{"full_code":"KR7005930003","short_code":"005930"},
		{"full_code":"KR7005935002","short_code":"005935"}
	]
}`

func TestInvestorNetTotals(t *testing.T) {
	c := newTestClient(t, stubScreens(t, map[string]string{
		"dbms/comm/finder/finder_stkisu": finderStub,
		"dbms/MDC/STAT/standard/MDCSTAT02203": `{
			"output": [
				{"INVST_TP_NM":"외국인합계","NETBID_TRDVOL":"20,000","NETBID_TRDVAL":"1,500,000,000"},
				{"INVST_TP_NM":"기관합계","NETBID_TRDVOL":"-7,000","NETBID_TRDVAL":"-500,000,000"},
				{"INVST_TP_NM":"기타법인","NETBID_TRDVOL":"100","NETBID_TRDVAL":"7,000,000"}
			]
		}`,
	}))

	from := time.Date(2025, 12, 17, 0, 0, 0, 0, time.UTC)
	to := time.Date(2026, 1, 16, 0, 0, 0, 0, time.UTC)
	totals, err := c.InvestorNetTotals(context.Background(), "005930", contracts.SegmentKOSPI, from, to)
	if err != nil {
		t.Fatalf("InvestorNetTotals() error = %v", err)
	}

	foreign, ok := totals[contracts.InvestorForeign]
	if !ok {
		t.Fatal("foreign class missing")
	}
	if foreign.NetValue != 1_500_000_000 || foreign.NetVolume != 20_000 {
		t.Errorf("foreign = %+v", foreign)
	}

	inst, ok := totals[contracts.InvestorInstitution]
	if !ok {
		t.Fatal("institution class missing")
	}
	if inst.NetValue != -500_000_000 || inst.NetVolume != -7_000 {
		t.Errorf("institution = %+v", inst)
	}

	// no 개인 row upstream: class absent, not zero
	if _, ok := totals[contracts.InvestorIndividual]; ok {
		t.Error("individual class present, want absent")
	}
}

func TestInvestorNetTotalsLegacyLabels(t *testing.T) {
	// KRX has shipped 기관종합 instead of 기관합계; the declared mapping
	// accepts both
	c := newTestClient(t, stubScreens(t, map[string]string{
		"dbms/comm/finder/finder_stkisu": finderStub,
		"dbms/MDC/STAT/standard/MDCSTAT02203": `{
			"output": [
				{"INVST_TP_NM":"기관종합","NETBID_TRDVOL":"5,500","NETBID_TRDVAL":"300,000,000"}
			]
		}`,
	}))

	totals, err := c.InvestorNetTotals(context.Background(), "005930", contracts.SegmentKOSPI, time.Now().AddDate(0, 0, -30), time.Now())
	if err != nil {
		t.Fatalf("InvestorNetTotals() error = %v", err)
	}

	inst, ok := totals[contracts.InvestorInstitution]
	if !ok {
		t.Fatal("institution class missing under legacy label")
	}
	if inst.NetValue != 300_000_000 {
		t.Errorf("institution NetValue = %d", inst.NetValue)
	}
}

func TestInvestorFlows(t *testing.T) {
	c := newTestClient(t, stubScreens(t, map[string]string{
		"dbms/comm/finder/finder_stkisu": finderStub,
		"dbms/MDC/STAT/standard/MDCSTAT02303": `{
			"output": [
				{"TRD_DD":"2026/01/16","TRDVAL1":"-700,000,000","TRDVAL2":"10,000,000","TRDVAL3":"350,000,000","TRDVAL4":"1,750,000,000"},
				{"TRD_DD":"2026/01/15","TRDVAL1":"-600,000,000","TRDVAL2":"5,000,000","TRDVAL3":"300,000,000","TRDVAL4":"1,500,000,000"}
			]
		}`,
	}))

	from := time.Date(2026, 1, 15, 0, 0, 0, 0, time.UTC)
	to := time.Date(2026, 1, 16, 0, 0, 0, 0, time.UTC)
	rows, err := c.InvestorFlows(context.Background(), "005930", contracts.SegmentKOSPI, from, to)
	if err != nil {
		t.Fatalf("InvestorFlows() error = %v", err)
	}

	// two days x three classes, ascending by date after the reversal
	if len(rows) != 6 {
		t.Fatalf("InvestorFlows() returned %d rows, want 6", len(rows))
	}
	if !rows[0].Date.Before(rows[len(rows)-1].Date) {
		t.Error("rows are not ascending by date")
	}

	byClass := map[contracts.InvestorClass]int64{}
	for _, r := range rows {
		if r.Date.Equal(time.Date(2026, 1, 16, 0, 0, 0, 0, time.UTC)) {
			byClass[r.Class] = r.NetValue
		}
	}
	if byClass[contracts.InvestorForeign] != 1_750_000_000 {
		t.Errorf("foreign = %d", byClass[contracts.InvestorForeign])
	}
	if byClass[contracts.InvestorInstitution] != -700_000_000 {
		t.Errorf("institution = %d", byClass[contracts.InvestorInstitution])
	}
	if byClass[contracts.InvestorIndividual] != 350_000_000 {
		t.Errorf("individual = %d", byClass[contracts.InvestorIndividual])
	}
}

func TestResolveISINCachesLookups(t *testing.T) {
	finderCalls := 0
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		r.ParseForm()
		if r.FormValue("bld") == "dbms/comm/finder/finder_stkisu" {
			finderCalls++
			w.Write([]byte(finderStub))
			return
		}
		w.Write([]byte(`{"output": []}`))
	})

	ctx := context.Background()
	for i := 0; i < 3; i++ {
		if _, err := c.InvestorNetTotals(ctx, "005930", contracts.SegmentKOSPI, time.Now().AddDate(0, 0, -30), time.Now()); err != nil {
			t.Fatalf("InvestorNetTotals() error = %v", err)
		}
	}

	if finderCalls != 1 {
		t.Errorf("finder called %d times, want 1 (cached)", finderCalls)
	}
}
