package domain

import "time"

// CurrentWeather is the reshaped current-conditions payload served by the API.
type CurrentWeather struct {
	Temperature float64 `json:"temperature"`
	FeelsLike   float64 `json:"feels_like"`
	Humidity    float64 `json:"humidity"`
	Pressure    float64 `json:"pressure"`
	WindSpeed   float64 `json:"wind_speed"`
	Description string  `json:"description"`
	Icon        string  `json:"icon"`
}

// WeatherReport wraps current conditions with the resolved location.
type WeatherReport struct {
	City      string         `json:"city"`
	Country   string         `json:"country"`
	Timestamp time.Time      `json:"timestamp"`
	Weather   CurrentWeather `json:"weather"`
}

// DailyForecast is one day of the reshaped forecast payload.
type DailyForecast struct {
	Date                     string  `json:"date"`
	TempMin                  float64 `json:"temp_min"`
	TempMax                  float64 `json:"temp_max"`
	TempDay                  float64 `json:"temp_day"`
	TempNight                float64 `json:"temp_night"`
	Humidity                 float64 `json:"humidity"`
	WindSpeed                float64 `json:"wind_speed"`
	Description              string  `json:"description"`
	Icon                     string  `json:"icon"`
	PrecipitationProbability float64 `json:"precipitation_probability"`
}

// ForecastReport is the 7-day forecast envelope.
type ForecastReport struct {
	City     string          `json:"city"`
	Country  string          `json:"country"`
	Forecast []DailyForecast `json:"forecast"`
}

// Location is a geocoded city.
type Location struct {
	Latitude  float64
	Longitude float64
	Name      string
	Country   string
}
