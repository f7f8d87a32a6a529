// Package fixtures describes the hotel a storage driver is seeded with.
package fixtures

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"

	"hotelops/internal/domain/inventory"
	"hotelops/internal/domain/shared/money"
)

type RoomType struct {
	ID           int64    `json:"id"`
	Name         string   `json:"name"`
	Description  string   `json:"description"`
	BasePrice    string   `json:"base_price"`
	MaxOccupancy int      `json:"max_occupancy"`
	Amenities    []string `json:"amenities"`
}

type Room struct {
	ID         int64  `json:"id"`
	Number     string `json:"room_number"`
	RoomTypeID int64  `json:"room_type_id"`
	Floor      string `json:"floor"`
	Status     string `json:"status"`
	Notes      string `json:"notes"`
}

type Guest struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// Hotel is the raw fixture document.
type Hotel struct {
	RoomTypes []RoomType `json:"room_types"`
	Rooms     []Room     `json:"rooms"`
	Guests    []Guest    `json:"guests"`
}

// Inventory is a fixture document converted into domain values.
type Inventory struct {
	RoomTypes []inventory.RoomType
	Rooms     []inventory.Room
	GuestIDs  []int64
}

// Load reads a JSON fixture file.
func Load(path string) (Hotel, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return Hotel{}, fmt.Errorf("fixtures: read %s: %w", path, err)
	}
	var h Hotel
	if err := json.Unmarshal(raw, &h); err != nil {
		return Hotel{}, fmt.Errorf("fixtures: decode %s: %w", path, err)
	}
	return h, nil
}

// Build validates the document and converts it, pricing everything in currency.
func (h Hotel) Build(currency string) (Inventory, error) {
	out := Inventory{}
	types := make(map[int64]bool, len(h.RoomTypes))
	for _, t := range h.RoomTypes {
		price, err := money.ParseDecimal(t.BasePrice, currency)
		if err != nil {
			return Inventory{}, fmt.Errorf("fixtures: room type %q: %w", t.Name, err)
		}
		rt := inventory.RoomType{
			ID:           inventory.RoomTypeID(t.ID),
			Name:         t.Name,
			Description:  t.Description,
			BasePrice:    price,
			MaxOccupancy: t.MaxOccupancy,
			Amenities:    t.Amenities,
		}
		if err := rt.Validate(); err != nil {
			return Inventory{}, fmt.Errorf("fixtures: room type %q: %w", t.Name, err)
		}
		types[t.ID] = true
		out.RoomTypes = append(out.RoomTypes, rt)
	}
	numbers := make(map[string]bool, len(h.Rooms))
	for _, r := range h.Rooms {
		if !types[r.RoomTypeID] {
			return Inventory{}, fmt.Errorf("fixtures: room %s references unknown type %d", r.Number, r.RoomTypeID)
		}
		if numbers[r.Number] {
			return Inventory{}, fmt.Errorf("fixtures: duplicate room number %s", r.Number)
		}
		numbers[r.Number] = true
		status := inventory.RoomAvailable
		if r.Status != "" {
			s, err := inventory.ParseRoomStatus(r.Status)
			if err != nil {
				return Inventory{}, fmt.Errorf("fixtures: room %s: %w", r.Number, err)
			}
			status = s
		}
		out.Rooms = append(out.Rooms, inventory.Room{
			ID:     inventory.RoomID(r.ID),
			Number: r.Number,
			TypeID: inventory.RoomTypeID(r.RoomTypeID),
			Floor:  r.Floor,
			Status: status,
			Notes:  r.Notes,
		})
	}
	for _, g := range h.Guests {
		out.GuestIDs = append(out.GuestIDs, g.ID)
	}
	return out, nil
}

// Default is the demo hotel: four room types on five floors, three rooms of
// each type per floor, numbered from 101.
func Default() Hotel {
	h := Hotel{
		RoomTypes: []RoomType{
			{ID: 1, Name: "Standard Single", Description: "Cozy single room with essential amenities", BasePrice: "89.99", MaxOccupancy: 1, Amenities: []string{"WiFi", "TV", "Air Conditioning", "Private Bathroom"}},
			{ID: 2, Name: "Standard Double", Description: "Comfortable double room perfect for couples", BasePrice: "129.99", MaxOccupancy: 2, Amenities: []string{"WiFi", "TV", "Air Conditioning", "Private Bathroom", "Mini Fridge"}},
			{ID: 3, Name: "Deluxe Suite", Description: "Spacious suite with separate living area", BasePrice: "249.99", MaxOccupancy: 4, Amenities: []string{"WiFi", "Smart TV", "Air Conditioning", "Private Bathroom", "Mini Bar", "Living Area", "City View"}},
			{ID: 4, Name: "Executive Room", Description: "Premium room with work desk for business travelers", BasePrice: "189.99", MaxOccupancy: 2, Amenities: []string{"WiFi", "Smart TV", "Air Conditioning", "Private Bathroom", "Work Desk", "Coffee Machine"}},
		},
	}
	id := int64(1)
	for floor := 1; floor <= 5; floor++ {
		seq := 1
		for _, rt := range h.RoomTypes {
			for i := 0; i < 3; i++ {
				h.Rooms = append(h.Rooms, Room{
					ID:         id,
					Number:     strconv.Itoa(floor*100 + seq),
					RoomTypeID: rt.ID,
					Floor:      strconv.Itoa(floor),
				})
				id++
				seq++
			}
		}
	}
	for g := int64(1); g <= 20; g++ {
		h.Guests = append(h.Guests, Guest{ID: g, Name: "Guest " + strconv.FormatInt(g, 10)})
	}
	return h
}
