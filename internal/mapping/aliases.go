package mapping

// metricAliases is the canonical metric vocabulary: every known spelling of
// each canonical key, in declaration order. Order is load-bearing twice over:
// an alias spelled under two keys resolves to the later declaration (so
// "min_temp" belongs to temp_min, not temperature), while fuzzy-score ties
// resolve to the alias's first position in the table. buildAliasIndex
// implements both rules; edit the table, not the lookup.
var metricAliases = []struct {
	Key     string
	Aliases []string
}{
	{"temperature", []string{"temp", "temperature", "temp_f", "temp_c", "fahrenheit", "celsius", "t", "temp_high", "temp_low", "max_temp", "min_temp", "avg_temp", "avg_temp_f"}},
	{"humidity", []string{"humidity", "hum", "relative_humidity", "rh", "humidity_percent", "moisture", "dew_point"}},
	{"pressure", []string{"pressure", "barometric_pressure", "atm", "hpa", "mb", "millibars", "barometer", "air_pressure"}},
	{"wind_speed", []string{"wind_speed", "wind", "wind_velocity", "wind_mph", "wind_kmh", "wind_knots", "wind_force", "wind_velocity_mph"}},
	{"wind_direction", []string{"wind_direction", "wind_dir", "wind_bearing", "wind_degrees", "wind_angle", "wind_heading"}},
	{"wind_gust", []string{"wind_gust", "gust", "wind_gust_speed", "gust_speed", "wind_gust_mph"}},
	{"visibility", []string{"visibility", "vis", "visibility_miles", "visibility_km", "visibility_distance", "fog_distance"}},
	{"cloud_cover", []string{"cloud_cover", "clouds", "cloud_percentage", "cloud_amount", "sky_cover", "cloudiness"}},
	{"feels_like", []string{"feels_like", "apparent_temperature", "real_feel", "apparent_temp"}},
	{"temp_min", []string{"temp_min", "min_temp", "minimum_temperature", "low_temp", "low_temperature", "min_temp_f"}},
	{"temp_max", []string{"temp_max", "max_temp", "maximum_temperature", "high_temp", "high_temperature", "max_temp_f"}},
	{"rain", []string{"rain", "rainfall", "rain_amount", "rain_mm", "rain_inches", "precipitation", "precip_mm"}},
	{"snow", []string{"snow", "snowfall", "snow_amount", "snow_mm", "snow_inches"}},
	{"weather_main", []string{"weather_main", "weather_type", "weather", "condition", "weather_condition", "conditions", "weather_desc", "weather_description"}},
	{"weather_id", []string{"weather_id", "weather_code", "condition_id"}},
	{"weather_icon", []string{"weather_icon", "icon", "weather_icon_code"}},
	{"uv_index", []string{"uv_index", "uv", "ultraviolet", "uv_radiation", "sun_index"}},
	{"air_quality_index", []string{"air_quality_index", "aqi", "air_quality", "pollution_index", "air_pollution"}},
	{"air_quality_description", []string{"air_quality_description", "aqi_description", "air_quality_status", "pollution_status"}},
	{"heat_index", []string{"heat_index", "heat_index_f", "heat_index_c", "apparent_heat"}},
	{"wind_chill", []string{"wind_chill", "wind_chill_f", "wind_chill_c", "apparent_cold"}},
	{"dew_point", []string{"dew_point", "dew_point_f", "dew_point_c", "dewpoint"}},
	{"precipitation_probability", []string{"precipitation_probability", "rain_probability", "snow_probability", "precip_chance", "rain_chance", "snow_chance", "precipitation_chance"}},
	{"weather_comfort_score", []string{"weather_comfort_score", "comfort_score", "comfort_index", "weather_comfort"}},
}

// aliasPair is one scan position in the fuzzy-match order.
type aliasPair struct {
	alias string
	key   string
}

// buildAliasIndex flattens metricAliases into (a) the ordered pair list the
// fuzzy pass scans and (b) the exact-lookup map. A repeated alias keeps its
// first scan position but takes the key of its last declaration.
func buildAliasIndex() ([]aliasPair, map[string]string) {
	var pairs []aliasPair
	position := make(map[string]int)

	for _, entry := range metricAliases {
		for _, alias := range entry.Aliases {
			if at, seen := position[alias]; seen {
				pairs[at].key = entry.Key
				continue
			}
			position[alias] = len(pairs)
			pairs = append(pairs, aliasPair{alias: alias, key: entry.Key})
		}
	}

	exact := make(map[string]string, len(pairs))
	for _, p := range pairs {
		exact[p.alias] = p.key
	}
	return pairs, exact
}
