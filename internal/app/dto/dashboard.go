package dto

type RoomTypeCount struct {
	RoomTypeID   int64  `json:"room_type_id"`
	RoomTypeName string `json:"room_type_name"`
	Rooms        int    `json:"rooms"`
}

type DashboardStats struct {
	Date               string          `json:"date"`
	TotalRooms         int             `json:"total_rooms"`
	AvailableRooms     int             `json:"available_rooms"`
	OccupiedRooms      int             `json:"occupied_rooms"`
	MaintenanceRooms   int             `json:"maintenance_rooms"`
	OutOfOrderRooms    int             `json:"out_of_order_rooms"`
	ActiveReservations int             `json:"active_reservations"`
	TodayCheckIns      int             `json:"today_check_ins"`
	TodayCheckOuts     int             `json:"today_check_outs"`
	RoomTypes          []RoomTypeCount `json:"room_types"`
}
