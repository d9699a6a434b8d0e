package excel

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"campaignintel/domain/constituency"
	"campaignintel/domain/core"
	"campaignintel/internal"
	"campaignintel/ports"
)

// RecordsFromSheet converts sheet rows into sparse records. Several rows may
// share an id, one per election year; scalar columns take the first
// non-empty value seen. Records come back ordered by id.
func RecordsFromSheet(data *SheetData) ([]*constituency.Record, error) {
	byID := make(map[core.ConstituencyID]*constituency.Record)
	for i, row := range data.Rows {
		line := i + 2 // header is line 1
		id, err := core.ParseConstituencyID(row[ColID])
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", line, err)
		}
		rec, ok := byID[id]
		if !ok {
			rec = &constituency.Record{ID: id}
			byID[id] = rec
		}
		if err := applyRow(rec, data.Headers, row); err != nil {
			return nil, fmt.Errorf("row %d (%s): %w", line, id, err)
		}
	}

	out := make([]*constituency.Record, 0, len(byID))
	for _, rec := range byID {
		sort.SliceStable(rec.Elections, func(a, b int) bool {
			return rec.Elections[a].Year < rec.Elections[b].Year
		})
		out = append(out, rec)
	}
	sort.Slice(out, func(a, b int) bool { return out[a].ID < out[b].ID })
	return out, nil
}

func applyRow(rec *constituency.Record, headers []string, row RawRowData) error {
	setString(&rec.Name, row[ColName])
	setString(&rec.District, row[ColDistrict])
	setString(&rec.Region, row[ColRegion])
	setString(&rec.OurParty, row[ColOurParty])
	if v := row[ColClassification]; v != "" && rec.Classification == "" {
		rec.Classification = constituency.Classification(strings.ToLower(v))
	}

	var err error
	if rec.TotalVoters == nil {
		if rec.TotalVoters, err = parseInt(row, ColTotalVoters); err != nil {
			return err
		}
	}
	if rec.OurPosition == nil {
		if rec.OurPosition, err = parseInt(row, ColOurPosition); err != nil {
			return err
		}
	}
	if rec.OurShare == nil {
		if rec.OurShare, err = parseFloat(row, ColOurVoteShare); err != nil {
			return err
		}
	}
	if rec.NamedIncumbent == nil {
		if rec.NamedIncumbent, err = parseBool(row, ColNamedIncumbent); err != nil {
			return err
		}
	}
	if rec.CapitalDistrict == nil {
		if rec.CapitalDistrict, err = parseBool(row, ColCapitalDistrict); err != nil {
			return err
		}
	}

	if err := applySignals(rec, row); err != nil {
		return err
	}
	if err := applyElection(rec, row); err != nil {
		return err
	}
	return applyDemographics(rec, headers, row)
}

func applySignals(rec *constituency.Record, row RawRowData) error {
	sig := constituency.Signals{}
	if rec.Signals != nil {
		sig = *rec.Signals
	}
	fields := []struct {
		col string
		dst **float64
	}{
		{ColAntiIncumbency, &sig.AntiIncumbency},
		{ColWelfareDependency, &sig.WelfareDependency},
		{ColUnemployment, &sig.Unemployment},
		{ColCorruptionPerception, &sig.CorruptionPerception},
	}
	for _, f := range fields {
		if *f.dst != nil {
			continue
		}
		v, err := parseFloat(row, f.col)
		if err != nil {
			return err
		}
		*f.dst = v
	}
	if v := row[ColPolicyImpact]; v != "" && sig.PolicyImpact == "" {
		sig.PolicyImpact = constituency.PolicyImpact(strings.ToLower(v))
	}
	if sig != (constituency.Signals{}) {
		rec.Signals = &sig
	}
	return nil
}

func applyElection(rec *constituency.Record, row RawRowData) error {
	year, err := parseInt(row, ColYear)
	if err != nil || year == nil {
		return err
	}
	e := constituency.ElectionResult{
		Year:          *year,
		WinningParty:  row[ColWinningParty],
		RunnerUpParty: row[ColRunnerUpParty],
	}
	floatsByCol := []struct {
		col string
		dst *float64
	}{
		{ColWinnerVoteShare, &e.WinnerVoteShare},
		{ColRunnerUpVoteShare, &e.RunnerUpVoteShare},
		{ColMarginPercent, &e.MarginPercent},
		{ColTurnout, &e.Turnout},
	}
	for _, f := range floatsByCol {
		v, err := parseFloat(row, f.col)
		if err != nil {
			return err
		}
		if v != nil {
			*f.dst = *v
		}
	}
	if e.MarginPercent == 0 && e.WinnerVoteShare > 0 {
		e.MarginPercent = e.WinnerVoteShare - e.RunnerUpVoteShare
	}
	rec.Elections = append(rec.Elections, e)
	return nil
}

func applyDemographics(rec *constituency.Record, headers []string, row RawRowData) error {
	groups := []struct {
		prefix string
		dst    *constituency.Group
	}{
		{PrefixReligion, &rec.Demographics.Religion},
		{PrefixCaste, &rec.Demographics.Caste},
		{PrefixAge, &rec.Demographics.Age},
		{PrefixGender, &rec.Demographics.Gender},
	}
	for _, g := range groups {
		if len(*g.dst) > 0 {
			continue
		}
		var shares constituency.Group
		for _, h := range headers {
			if !strings.HasPrefix(h, g.prefix) {
				continue
			}
			v, err := parseFloat(row, h)
			if err != nil {
				return err
			}
			if v != nil {
				shares = append(shares, constituency.Share{Name: strings.TrimPrefix(h, g.prefix), Percent: *v})
			}
		}
		*g.dst = shares
	}
	return nil
}

func setString(dst *string, v string) {
	if *dst == "" && v != "" {
		*dst = v
	}
}

func parseInt(row RawRowData, col string) (*int, error) {
	raw, ok := row[col]
	if !ok {
		return nil, nil
	}
	f, err := strconv.ParseFloat(strings.ReplaceAll(raw, ",", ""), 64)
	if err != nil {
		return nil, core.NewMalformedError(col, "%q is not a number", raw)
	}
	v := int(f)
	return &v, nil
}

func parseFloat(row RawRowData, col string) (*float64, error) {
	raw, ok := row[col]
	if !ok {
		return nil, nil
	}
	v, err := strconv.ParseFloat(strings.TrimSuffix(raw, "%"), 64)
	if err != nil {
		return nil, core.NewMalformedError(col, "%q is not a number", raw)
	}
	return &v, nil
}

func parseBool(row RawRowData, col string) (*bool, error) {
	raw, ok := row[col]
	if !ok {
		return nil, nil
	}
	switch strings.ToLower(raw) {
	case "1", "y", "yes", "true":
		v := true
		return &v, nil
	case "0", "n", "no", "false":
		v := false
		return &v, nil
	}
	return nil, core.NewMalformedError(col, "%q is not a yes/no value", raw)
}

// Importer seeds a record store from a workbook.
type Importer struct {
	store  ports.ConstituencyStore
	logger *internal.Logger
}

// NewImporter creates an importer writing into store.
func NewImporter(store ports.ConstituencyStore, logger *internal.Logger) *Importer {
	if logger == nil {
		logger = internal.NewNopLogger()
	}
	return &Importer{store: store, logger: logger}
}

// ImportFile reads path and upserts every record. It returns the ids written.
func (im *Importer) ImportFile(ctx context.Context, path string) ([]core.ConstituencyID, error) {
	data, err := NewDataReader(path, im.logger).ReadData()
	if err != nil {
		return nil, err
	}
	records, err := RecordsFromSheet(data)
	if err != nil {
		return nil, err
	}

	ids := make([]core.ConstituencyID, 0, len(records))
	for _, rec := range records {
		if err := ctx.Err(); err != nil {
			return ids, err
		}
		if err := im.store.UpsertRecord(ctx, rec); err != nil {
			return ids, fmt.Errorf("import %s: %w", rec.ID, err)
		}
		ids = append(ids, rec.ID)
	}
	im.logger.Info("[Importer] imported %d constituencies from %s", len(ids), path)
	return ids, nil
}
