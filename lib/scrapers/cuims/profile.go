package cuims

import (
	"context"
	"fmt"

	"cuims-backend/lib/htmlutil"
	"cuims-backend/lib/textutil"

	"github.com/PuerkitoBio/goquery"
	"github.com/antzucaro/matchr"
	"go.opentelemetry.io/otel/codes"
)

// portal labels vary slightly across pages and terms, so exact matches
// on the normalized label are tried first and fuzzy matching picks up
// the rest
var profileLabels = map[string]func(p *Profile, value string){
	"name":          func(p *Profile, v string) { p.Name = v },
	"uid":           func(p *Profile, v string) { p.UID = v },
	"dateofbirth":   func(p *Profile, v string) { p.DateOfBirth = v },
	"gender":        func(p *Profile, v string) { p.Gender = v },
	"bloodgroup":    func(p *Profile, v string) { p.BloodGroup = v },
	"category":      func(p *Profile, v string) { p.Category = v },
	"nationality":   func(p *Profile, v string) { p.Nationality = v },
	"program":       func(p *Profile, v string) { p.Program = v },
	"section":       func(p *Profile, v string) { p.Section = v },
	"mobile":        func(p *Profile, v string) { p.Mobile = v },
	"email":         func(p *Profile, v string) { p.Email = v },
}

const labelMatchThreshold = 0.9

func assignProfileField(p *Profile, label, value string) {
	key := textutil.NormalizeLabel(label)
	if assign, ok := profileLabels[key]; ok {
		assign(p, value)
		return
	}
	for known, assign := range profileLabels {
		if matchr.JaroWinkler(key, known, true) >= labelMatchThreshold {
			assign(p, value)
			return
		}
	}
	if p.Other == nil {
		p.Other = map[string]string{}
	}
	p.Other[textutil.CleanCell(label)] = value
}

// Profile scrapes the personal information panel plus the education and
// contact tables. The tables are optional, a missing one yields an
// empty slice rather than an error.
func (c *Client) Profile(ctx context.Context) (Profile, error) {
	ctx, span := tracer.Start(ctx, "client:Profile")
	defer span.End()

	doc, err := c.getDocument(ctx, profilePath)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to fetch the profile page")
		return Profile{}, err
	}

	rows := doc.Find(".stuProfileData .row .col-md-5.col-xs-6 .row")
	if rows.Length() == 0 {
		err := fmt.Errorf("could not find the personal information panel")
		span.SetStatus(codes.Error, err.Error())
		return Profile{}, err
	}

	profile := Profile{
		Education: []Education{},
		Contacts:  []Contact{},
	}
	rows.Each(func(_ int, row *goquery.Selection) {
		label := htmlutil.CellText(row.Find(".col-sm-4").First())
		value := htmlutil.CellText(row.Find(".col-sm-8").First())
		if label == "" || value == "" {
			return
		}
		assignProfileField(&profile, label, value)
	})

	doc.Find("#ContentPlaceHolder1_gvStudentQualification tbody tr").Each(func(i int, row *goquery.Selection) {
		if i == 0 {
			return
		}
		cells := htmlutil.RowCells(row)
		if len(cells) < 5 {
			return
		}
		profile.Education = append(profile.Education, Education{
			Qualification: cells[0],
			Stream:        cells[1],
			School:        cells[2],
			Board:         cells[3],
			PassingYear:   cells[4],
		})
	})

	doc.Find("#ContentPlaceHolder1_gvStudentContacts tbody tr").Each(func(i int, row *goquery.Selection) {
		if i == 0 {
			return
		}
		cells := htmlutil.RowCells(row)
		if len(cells) < 5 {
			return
		}
		profile.Contacts = append(profile.Contacts, Contact{
			Type:      cells[0],
			Residence: cells[1],
			Office:    cells[2],
			Mobile:    cells[3],
			Email:     cells[4],
		})
	})

	return profile, nil
}
