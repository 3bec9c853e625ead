package booking

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Locators names every page and element the workflow touches on the booking
// surface. They are configuration, never computed.
type Locators struct {
	LoginURL      string `yaml:"login_url"`
	LoginUsername string `yaml:"login_username"`
	LoginPassword string `yaml:"login_password"`
	LoginSubmit   string `yaml:"login_submit"`

	QueryURL        string `yaml:"query_url"`
	QueryAccount    string `yaml:"query_account"`
	QueryOrigin     string `yaml:"query_origin"`
	QueryDest       string `yaml:"query_destination"`
	QueryDate       string `yaml:"query_date"`
	QueryTrainNo    string `yaml:"query_train_no"`
	SeatZoneAisle   string `yaml:"seat_zone_aisle"`
	SeatZoneWindow  string `yaml:"seat_zone_window"`
	QuerySubmit     string `yaml:"query_submit"`
	BusyOverlay     string `yaml:"busy_overlay"`
	NoItinerary     string `yaml:"no_itinerary"`
	ItineraryRow    string `yaml:"itinerary_row"`
	ItinerarySubmit string `yaml:"itinerary_submit"`
	SeatText        string `yaml:"seat_text"`
	BookingCode     string `yaml:"booking_code"`

	CancelURL         string `yaml:"cancel_url"`
	CancelAccount     string `yaml:"cancel_account"`
	CancelBookingCode string `yaml:"cancel_booking_code"`
	CancelQuery       string `yaml:"cancel_query"`
	CancelButton      string `yaml:"cancel_button"`
	CancelConfirm     string `yaml:"cancel_confirm"`
}

// DefaultLocators targets the TRA ticketing site.
func DefaultLocators() Locators {
	return Locators{
		LoginURL:      "https://www.railway.gov.tw/tra-tip-web/tip/tip008/tip811/memberLogin",
		LoginUsername: "#username",
		LoginPassword: "#password",
		LoginSubmit:   "#submitBtn",

		QueryURL:        "https://www.railway.gov.tw/tra-tip-web/tip/tip001/tip121/query",
		QueryAccount:    "#pid",
		QueryOrigin:     "#startStation",
		QueryDest:       "#endStation",
		QueryDate:       "#rideDate1",
		QueryTrainNo:    "#trainNoList1",
		SeatZoneAisle:   `label[for="seatPref1"]`,
		SeatZoneWindow:  `label[for="seatPref2"]`,
		QuerySubmit:     "#queryForm > div.btn-sentgroup > input.btn.btn-3d",
		BusyOverlay:     ".blockUI.blockOverlay",
		NoItinerary:     ".alert-danger",
		ItineraryRow:    `input[name="trainSelect"]`,
		ItinerarySubmit: "#order > div.btn-sentgroup > button.btn-3d",
		SeatText:        ".seat",
		BookingCode:     ".font18",

		CancelURL:         "https://www.railway.gov.tw/tra-tip-web/tip/tip001/tip115/query",
		CancelAccount:     "#pid",
		CancelBookingCode: "#bookingcode",
		CancelQuery:       "#queryForm > div.btn-sentgroup > button",
		CancelButton:      "#cancel",
		CancelConfirm:     ".btn-danger",
	}
}

// LoadLocators overlays the non-empty entries of a YAML file on the defaults.
func LoadLocators(path string) (Locators, error) {
	loc := DefaultLocators()
	if path == "" {
		return loc, nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return loc, fmt.Errorf("read locators: %w", err)
	}
	var override Locators
	if err := yaml.Unmarshal(b, &override); err != nil {
		return loc, fmt.Errorf("parse locators %s: %w", path, err)
	}
	loc.merge(override)
	return loc, nil
}

func (l *Locators) merge(o Locators) {
	set := func(dst *string, v string) {
		if v != "" {
			*dst = v
		}
	}
	set(&l.LoginURL, o.LoginURL)
	set(&l.LoginUsername, o.LoginUsername)
	set(&l.LoginPassword, o.LoginPassword)
	set(&l.LoginSubmit, o.LoginSubmit)
	set(&l.QueryURL, o.QueryURL)
	set(&l.QueryAccount, o.QueryAccount)
	set(&l.QueryOrigin, o.QueryOrigin)
	set(&l.QueryDest, o.QueryDest)
	set(&l.QueryDate, o.QueryDate)
	set(&l.QueryTrainNo, o.QueryTrainNo)
	set(&l.SeatZoneAisle, o.SeatZoneAisle)
	set(&l.SeatZoneWindow, o.SeatZoneWindow)
	set(&l.QuerySubmit, o.QuerySubmit)
	set(&l.BusyOverlay, o.BusyOverlay)
	set(&l.NoItinerary, o.NoItinerary)
	set(&l.ItineraryRow, o.ItineraryRow)
	set(&l.ItinerarySubmit, o.ItinerarySubmit)
	set(&l.SeatText, o.SeatText)
	set(&l.BookingCode, o.BookingCode)
	set(&l.CancelURL, o.CancelURL)
	set(&l.CancelAccount, o.CancelAccount)
	set(&l.CancelBookingCode, o.CancelBookingCode)
	set(&l.CancelQuery, o.CancelQuery)
	set(&l.CancelButton, o.CancelButton)
	set(&l.CancelConfirm, o.CancelConfirm)
}
