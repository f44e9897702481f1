package domain

import "fmt"

// Kind identifies a bookable service line. The value is stored as quote_item.service_type.
type Kind string

const (
	KindRoom       Kind = "room"
	KindCar        Kind = "car"
	KindCarShuttle Kind = "car_sht"
	KindAirport    Kind = "airport"
	KindHotel      Kind = "hotel"
	KindRentcar    Kind = "rentcar"
	KindTour       Kind = "tour"
)

type ReservationType string

const (
	ReservationCruise  ReservationType = "cruise"
	ReservationAirport ReservationType = "airport"
	ReservationHotel   ReservationType = "hotel"
	ReservationRentcar ReservationType = "rentcar"
	ReservationTour    ReservationType = "tour"
)

func (t ReservationType) Valid() bool {
	switch t {
	case ReservationCruise, ReservationAirport, ReservationHotel, ReservationRentcar, ReservationTour:
		return true
	}
	return false
}

// KindSpec maps a service kind onto its price lookup table and its detail tables.
// Facet columns are shared between the price table and both detail tables.
type KindSpec struct {
	Kind             Kind
	PriceTable       string
	Facets           []string
	CodeColumn       string
	Windowed         bool
	DetailTable      string
	DetailCodeColumn string
	ReservationTable string
	ReservationType  ReservationType
}

// FacetMap pairs facet column names with the given values.
func (s KindSpec) FacetMap(values []string) map[string]string {
	m := make(map[string]string, len(s.Facets))
	for i, name := range s.Facets {
		if i < len(values) {
			m[name] = values[i]
		}
	}
	return m
}

var catalog = []KindSpec{
	{
		Kind:             KindRoom,
		PriceTable:       "room_price",
		Facets:           []string{"schedule", "cruise", "room_type", "payment"},
		CodeColumn:       "room_code",
		Windowed:         true,
		DetailTable:      "room",
		DetailCodeColumn: "room_price_code",
		ReservationTable: "reservation_cruise",
		ReservationType:  ReservationCruise,
	},
	{
		Kind:             KindCar,
		PriceTable:       "car_price",
		Facets:           []string{"car_category", "cruise", "car_type"},
		CodeColumn:       "car_code",
		DetailTable:      "car",
		DetailCodeColumn: "car_price_code",
		ReservationTable: "reservation_cruise_car",
		ReservationType:  ReservationCruise,
	},
	{
		Kind:             KindCarShuttle,
		PriceTable:       "car_price",
		Facets:           []string{"car_category", "cruise", "car_type"},
		CodeColumn:       "car_code",
		DetailTable:      "car_sht",
		DetailCodeColumn: "car_price_code",
		ReservationTable: "reservation_car_sht",
		ReservationType:  ReservationCruise,
	},
	{
		Kind:             KindAirport,
		PriceTable:       "airport_price",
		Facets:           []string{"airport_category", "airport_route", "airport_car_type"},
		CodeColumn:       "airport_code",
		DetailTable:      "airport",
		DetailCodeColumn: "airport_price_code",
		ReservationTable: "reservation_airport",
		ReservationType:  ReservationAirport,
	},
	{
		Kind:             KindHotel,
		PriceTable:       "hotel_price",
		Facets:           []string{"hotel_name", "room_name", "room_type"},
		CodeColumn:       "hotel_code",
		Windowed:         true,
		DetailTable:      "hotel",
		DetailCodeColumn: "hotel_price_code",
		ReservationTable: "reservation_hotel",
		ReservationType:  ReservationHotel,
	},
	{
		Kind:             KindRentcar,
		PriceTable:       "rent_price",
		Facets:           []string{"rent_type", "rent_category", "rent_route", "rent_car_type"},
		CodeColumn:       "rent_code",
		DetailTable:      "rentcar",
		DetailCodeColumn: "rentcar_price_code",
		ReservationTable: "reservation_rentcar",
		ReservationType:  ReservationRentcar,
	},
	{
		Kind:             KindTour,
		PriceTable:       "tour_price",
		Facets:           []string{"tour_name", "tour_capacity", "tour_vehicle"},
		CodeColumn:       "tour_code",
		DetailTable:      "tour",
		DetailCodeColumn: "tour_price_code",
		ReservationTable: "reservation_tour",
		ReservationType:  ReservationTour,
	},
}

var catalogByKind = func() map[Kind]KindSpec {
	m := make(map[Kind]KindSpec, len(catalog))
	for _, s := range catalog {
		m[s.Kind] = s
	}
	return m
}()

// Spec returns the catalog entry for kind.
func Spec(kind Kind) (KindSpec, error) {
	s, ok := catalogByKind[kind]
	if !ok {
		return KindSpec{}, fmt.Errorf("%w: unknown service kind %q", ErrValidation, kind)
	}
	return s, nil
}

// Kinds lists every catalog entry in a stable order.
func Kinds() []KindSpec {
	out := make([]KindSpec, len(catalog))
	copy(out, catalog)
	return out
}

// KindsFor lists the kinds a reservation of type t may carry.
func KindsFor(t ReservationType) []KindSpec {
	var out []KindSpec
	for _, s := range catalog {
		if s.ReservationType == t {
			out = append(out, s)
		}
	}
	return out
}
